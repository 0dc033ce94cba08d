// Command server runs the club portal HTTP API.
//
//	@title                      Club Portal API
//	@version                    1.0
//	@description                Membership, training and access endpoints of the sports club portal.
//	@BasePath                   /
//	@securityDefinitions.apikey BearerAuth
//	@in                         header
//	@name                       Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/club-portal-backend/internal/auth"
	"github.com/tbourn/club-portal-backend/internal/config"
	httpapi "github.com/tbourn/club-portal-backend/internal/http"
	"github.com/tbourn/club-portal-backend/internal/observability"
	"github.com/tbourn/club-portal-backend/internal/repo"
	"github.com/tbourn/club-portal-backend/internal/scheduler"
	"github.com/tbourn/club-portal-backend/internal/services"
	"github.com/tbourn/club-portal-backend/internal/sysutil"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.ConfigureLogging(cfg.LogLevel, cfg.LogPretty, os.Stdout)
	gin.SetMode(cfg.GinMode)

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	log.Info().Str("version", ver).Str("db_driver", cfg.DBDriver).Msg("starting club portal")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	var rdb redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The limiter falls back to local buckets while Redis is away.
			log.Warn().Err(err).Msg("redis unreachable at startup")
		}
	}

	purge := services.NewIdempotencyService(db, cfg.IdempotencyTTL, cfg.IdempotencyLockTimeout)
	sched, err := scheduler.New(purge, cfg.IdempotencyPurgeSchedule)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.IdempotencyPurgeSchedule).Msg("invalid IDEMPOTENCY_PURGE_SCHEDULE")
	}
	sched.Start()

	r := gin.New()
	httpapi.RegisterRoutes(r, cfg, httpapi.Deps{
		DB:     db,
		Tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		Redis:  rdb,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	sched.Stop()
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("bye")
}
