package observability

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/club-portal-backend/internal/config"
)

func keepGlobals(t *testing.T) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

// stop flushes with a short deadline; nothing listens on the endpoint, so
// export errors are expected and ignored.
func stop(shutdown ShutdownFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}

// enabled points at a collector that is never dialled; the gRPC client
// connects lazily.
func enabled(ratio float64) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: "club-portal-backend",
		Environment: "test",
		SampleRatio: ratio,
	}
}

func TestSetupOTel_DisabledLeavesGlobals(t *testing.T) {
	keepGlobals(t)
	before := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Endpoint: "ignored:4317"}, "dev")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatal("disabled tracing replaced the tracer provider")
	}
}

func TestSetupOTel_InstallsProviderAndW3CPropagation(t *testing.T) {
	keepGlobals(t)

	shutdown, err := SetupOTel(context.Background(), enabled(1), "v1.2.3")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer stop(shutdown)

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatal("expected *sdktrace.TracerProvider")
	}

	prop := otel.GetTextMapPropagator()
	for _, f := range []string{"traceparent", "baggage"} {
		if !slices.Contains(prop.Fields(), f) {
			t.Fatalf("propagator fields %v lack %q", prop.Fields(), f)
		}
	}

	ctx, span := otel.Tracer("services/TrainingService").Start(context.Background(), "CheckIn")
	defer span.End()
	if !span.SpanContext().IsSampled() {
		t.Fatal("ratio 1 should sample root spans")
	}

	carrier := propagation.MapCarrier{}
	prop.Inject(ctx, carrier)
	if carrier.Get("traceparent") == "" {
		t.Fatalf("traceparent not injected: %v", carrier)
	}
}

func TestSetupOTel_ZeroRatioDropsRootSpans(t *testing.T) {
	keepGlobals(t)

	shutdown, err := SetupOTel(context.Background(), enabled(0), "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer stop(shutdown)

	_, span := otel.Tracer("services/IdempotencyService").Start(context.Background(), "Execute")
	defer span.End()
	if span.SpanContext().IsSampled() {
		t.Fatal("ratio 0 must not sample root spans")
	}
}

func TestSetupOTel_CanceledContextStillSucceeds(t *testing.T) {
	keepGlobals(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shutdown, err := SetupOTel(ctx, enabled(1), "v1")
	if err != nil {
		t.Fatalf("unexpected err with canceled ctx: %v", err)
	}
	stop(shutdown)
}

func TestSetupOTel_SeamFailuresKeepGlobals(t *testing.T) {
	origExp, origRes := newOTLPExporterFn, newServiceResourceFn
	t.Cleanup(func() { newOTLPExporterFn, newServiceResourceFn = origExp, origRes })

	cases := []struct {
		name string
		fail func()
	}{
		{"exporter", func() {
			newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
				return nil, errors.New("boom-exporter")
			}
		}},
		{"resource", func() {
			newServiceResourceFn = func(context.Context, config.OTELConfig, string) (*resource.Resource, error) {
				return nil, errors.New("boom-resource")
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keepGlobals(t)
			newOTLPExporterFn, newServiceResourceFn = origExp, origRes
			tc.fail()

			tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
			if _, err := SetupOTel(context.Background(), enabled(1), "v0"); err == nil {
				t.Fatal("expected error")
			}
			if otel.GetTracerProvider() != tp || otel.GetTextMapPropagator() != prop {
				t.Fatal("globals changed on failure")
			}
		})
	}
}

func TestShutdown_BoundedByContext(t *testing.T) {
	keepGlobals(t)

	shutdown, err := SetupOTel(context.Background(), enabled(1), "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}

func TestServiceResource_CarriesEnvironment(t *testing.T) {
	res, err := newServiceResourceFn(context.Background(), config.OTELConfig{
		ServiceName: "club-portal",
		Environment: "staging",
	}, "v2.0.0")
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	if got["service.name"] != "club-portal" || got["service.version"] != "v2.0.0" || got["deployment.environment"] != "staging" {
		t.Fatalf("unexpected attributes: %v", got)
	}
}

func TestClientOptions_TLSBranch(t *testing.T) {
	if n := len(clientOptions(config.OTELConfig{Endpoint: "otel:4317", Insecure: true})); n != 4 {
		t.Fatalf("insecure options = %d; want 4", n)
	}
	if n := len(clientOptions(config.OTELConfig{Endpoint: "otel:4317"})); n != 4 {
		t.Fatalf("tls options = %d; want 4", n)
	}
}
