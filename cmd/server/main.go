// Command server runs the blog backend: a durable article store with a
// volatile draft cache, a heartbeat-driven reconciler, and an HTTP API.
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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-blog-backend/internal/ai"
	"github.com/tbourn/go-blog-backend/internal/config"
	"github.com/tbourn/go-blog-backend/internal/email"
	httpapi "github.com/tbourn/go-blog-backend/internal/http"
	"github.com/tbourn/go-blog-backend/internal/identity"
	"github.com/tbourn/go-blog-backend/internal/kv"
	"github.com/tbourn/go-blog-backend/internal/observability"
	"github.com/tbourn/go-blog-backend/internal/repo"
	"github.com/tbourn/go-blog-backend/internal/services"
	"github.com/tbourn/go-blog-backend/internal/storage"
	"github.com/tbourn/go-blog-backend/internal/sysutil"
)

var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	gin.SetMode(cfg.GinMode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// Durable article store
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	// Volatile store: Redis when configured, in-process fallback otherwise.
	// The in-memory store loses drafts on restart and does not share state
	// across replicas; it is for development only.
	var kvs kv.Store
	if cfg.RedisURL != "" {
		rds, err := kv.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer rds.Close()
		kvs = rds
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-memory volatile store")
		kvs = kv.NewMemory()
	}

	// Optional collaborators
	opts := httpapi.Options{}
	if cfg.IdentityURL != "" {
		opts.Verifier = identity.New(cfg.IdentityURL)
	} else {
		log.Warn().Msg("IDENTITY_URL not set, accepting X-User-ID dev headers")
	}
	if cfg.AI.APIKey != "" {
		opts.AI = ai.New(cfg.AI.APIKey, cfg.AI.Model)
	}
	opts.Mailer = email.New(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.AppURL, log.Logger)
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		up, err := storage.NewS3(ctx, cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			log.Fatal().Err(err).Msg("s3 setup failed")
		}
		opts.Uploader = up
	}

	// HTTP transport and application services
	engine := gin.New()
	app := httpapi.RegisterRoutes(engine, db, kvs, cfg, opts)

	// Background reconciliation of abandoned editing sessions
	rec := services.NewReconciler(
		app.Drafts, app.Editor,
		cfg.Editor.ScanInterval, cfg.Editor.StaleAfter, cfg.Editor.StoreTimeout,
		log.Logger,
	)
	rec.Start()

	var daily *services.DailyJob
	if cfg.DailyGenerate {
		daily = services.NewDailyJob(app.Gen, log.Logger)
		daily.Start()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
		}
	}

	// Stop background work first so in-flight flushes finish before the
	// stores go away.
	rec.Stop()
	if daily != nil {
		daily.Stop()
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownOTel(shutCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}

	log.Info().Msg("server stopped")
}
