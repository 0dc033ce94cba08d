package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	if key := KeyByUserOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("expected ip-based key; got %q", key)
	}

	c.Set(ctxKeyUserID, "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("expected user-based key; got %q", key)
	}
}

func TestNewRateLimiter_BurstCoercionAndReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	lim := rl.getVisitor("k1")
	if got := rl.getVisitor("k1"); got != lim {
		t.Fatalf("expected same limiter instance to be reused")
	}
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, KeyByUserOrIP())
	rl.ttl = 0
	old := rl.getVisitor("old")
	rl.cleanupN = 4999

	if got := rl.getVisitor("old"); got == old {
		t.Fatalf("expected idle bucket to be evicted and recreated")
	}
	if rl.cleanupN != 0 {
		t.Fatalf("cleanup counter not reset: %d", rl.cleanupN)
	}
}

func limitedRouter(h gin.HandlerFunc, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(pre...)
	r.Use(h)
	r.POST("/api/athlete/check-in", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func post(r http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/athlete/check-in", nil))
	return w
}

func TestRateLimiter_Handler429Envelope(t *testing.T) {
	r := limitedRouter(NewRateLimiter(0.0001, 1, KeyByUserOrIP()).Handler())

	if w := post(r); w.Code != http.StatusCreated {
		t.Fatalf("first request = %d", w.Code)
	}
	w := post(r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d; want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body["code"] != codeRateLimited || body["success"] != false || body["request_id"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRateLimiter_ReplaysBypass(t *testing.T) {
	bypass := func(c *gin.Context) {
		c.Set(ctxKeyRateBypass, true)
		c.Next()
	}
	r := limitedRouter(NewRateLimiter(0.0001, 1, KeyByUserOrIP()).Handler(), bypass)

	for i := 0; i < 3; i++ {
		if w := post(r); w.Code != http.StatusCreated {
			t.Fatalf("replay %d limited: %d", i, w.Code)
		}
	}
}

// memCounter is a Counter kept in a map.
type memCounter struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func (m *memCounter) Incr(_ context.Context, bucket string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.hits == nil {
		m.hits = map[string]int64{}
	}
	m.hits[bucket]++
	return m.hits[bucket], nil
}

func TestWindowLimiter_LimitsPerWindow(t *testing.T) {
	ctr := &memCounter{}
	wl := NewWindowLimiter(ctr, 2, time.Minute, KeyByUserOrIP())
	now := time.Date(2026, 5, 4, 10, 0, 10, 0, time.UTC)
	wl.Now = func() time.Time { return now }
	r := limitedRouter(wl.Handler())

	for i := 0; i < 2; i++ {
		if w := post(r); w.Code != http.StatusCreated {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
	w := post(r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d; want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "50" {
		t.Fatalf("Retry-After = %q; want 50", got)
	}

	now = now.Add(time.Minute)
	if w := post(r); w.Code != http.StatusCreated {
		t.Fatalf("next window = %d", w.Code)
	}
}

func TestWindowLimiter_FallsBackWhenStoreFails(t *testing.T) {
	_ = captureLogger(t)
	ctr := &memCounter{err: errors.New("connection refused")}
	wl := NewWindowLimiter(ctr, 1, time.Hour, KeyByUserOrIP())
	r := limitedRouter(wl.Handler())

	if w := post(r); w.Code != http.StatusCreated {
		t.Fatalf("fallback first = %d", w.Code)
	}
	if w := post(r); w.Code != http.StatusTooManyRequests {
		t.Fatalf("fallback second = %d; want 429", w.Code)
	}
}

func TestNewWindowLimiter_Defaults(t *testing.T) {
	wl := NewWindowLimiter(&memCounter{}, 0, 0, KeyByUserOrIP())
	if wl.Limit != 1 || wl.Window != time.Minute || wl.Fallback == nil {
		t.Fatalf("unexpected defaults: %+v", wl)
	}
}

func TestRedisCounter_PropagatesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	rc := &RedisCounter{Client: client, Prefix: "rl:"}
	_, err := rc.Incr(context.Background(), "user:u1:1", time.Minute)
	if err == nil || !strings.Contains(err.Error(), "rate counter") {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
