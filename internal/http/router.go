// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, rate limiting and the
// athlete access gate.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/club-portal-backend/docs"
	"github.com/tbourn/club-portal-backend/internal/config"
	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/http/handlers"
	"github.com/tbourn/club-portal-backend/internal/http/middleware"
	"github.com/tbourn/club-portal-backend/internal/services"
)

// Deps are the process-wide resources the router builds services from.
type Deps struct {
	DB     *gorm.DB
	Tokens middleware.TokenParser

	// Redis is optional. When set, rate limits are shared across instances.
	Redis redis.UniversalClient
}

// portals are the role portals served behind the access gate.
var portals = []string{"/admin", "/coach", "/athlete", "/parent"}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Global middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. gzip, CORS and security headers
//
// The API group then runs Authenticate, the idempotency validator (so
// replays can skip the limiter), the rate limiter and role resolution.
func RegisterRoutes(r *gin.Engine, cfg config.Config, deps Deps) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db
	accessSvc := services.NewAccessService(deps.DB)
	membershipSvc := services.NewMembershipService(deps.DB)
	trainingSvc := services.NewTrainingService(deps.DB)
	idemSvc := services.NewIdempotencyService(deps.DB, cfg.IdempotencyTTL, cfg.IdempotencyLockTimeout)
	h := handlers.New(accessSvc, membershipSvc, trainingSvc, idemSvc)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(
		middleware.Authenticate(deps.Tokens),
		middleware.IdempotencyValidator(idemSvc.HasCompleted),
		rateLimiter(cfg, deps.Redis),
		middleware.ResolveRole(accessSvc),
	)
	{
		api.GET("/me/access-status", h.GetAccessStatus)
		api.POST("/me/membership-applications",
			middleware.RequireCapability(domain.CapApplyForMembership), h.Apply)

		athlete := api.Group("/athlete", middleware.AthleteAccessGate(accessSvc))
		athlete.POST("/check-in", middleware.RequireCapability(domain.CapCheckIn), h.CheckIn)
		athlete.POST("/leave-request", middleware.RequireCapability(domain.CapRequestLeave), h.RequestLeave)

		review := middleware.RequireCapability(domain.CapReviewApplications)
		coach := api.Group("/coach")
		coach.GET("/applications", review, h.ListApplications)
		coach.POST("/applications/:id/approve", review, h.ApproveApplication)
		coach.POST("/applications/:id/reject", review, h.RejectApplication)
		coach.POST("/sessions", middleware.RequireCapability(domain.CapManageSessions), h.CreateSession)

		admin := api.Group("/admin", middleware.RequireCapability(domain.CapManageUsers))
		admin.PUT("/users/:id/role", h.SetUserRole)
		admin.POST("/users/:id/suspend", h.SuspendUser)
	}

	// Pages: anonymous callers are redirected by the gate, not rejected.
	identify := middleware.Identify(deps.Tokens)
	gate := middleware.PortalGate(accessSvc, cfg.PendingAllowedPaths)
	for _, p := range portals {
		r.GET(p, identify, gate, h.Portal)
		r.GET(p+"/*path", identify, gate, h.Portal)
	}
	r.GET(domain.LoginPath, h.Login)
	r.GET(domain.PendingApprovalPath, identify, h.PendingApproval)
}

// rateLimiter picks the shared window limiter when Redis is configured and
// the per-process token bucket otherwise.
func rateLimiter(cfg config.Config, rdb redis.UniversalClient) gin.HandlerFunc {
	if rdb != nil {
		counter := &middleware.RedisCounter{Client: rdb, Prefix: "ratelimit:"}
		return middleware.NewWindowLimiter(counter, cfg.RateLimit, cfg.RateWindow, middleware.KeyByUserOrIP()).Handler()
	}
	return middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler()
}

// corsMiddleware allows every origin when none are configured and echoes
// allowlisted origins otherwise. Clients need the replay headers exposed to
// tell a cached response from a fresh one.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{
			"X-Request-ID",
			middleware.HeaderIdempotencyCached,
			middleware.HeaderOriginalTimestamp,
			"Retry-After",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
		cc.AllowCredentials = true
	}
	return cors.New(cc)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
