// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/cache"
	"github.com/tbourn/go-blog-backend/internal/config"
	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/draftstore"
	"github.com/tbourn/go-blog-backend/internal/http/handlers"
	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/kv"
	"github.com/tbourn/go-blog-backend/internal/repo"
	"github.com/tbourn/go-blog-backend/internal/services"
	"github.com/tbourn/go-blog-backend/internal/storage"
)

// articleRepoShim adapts the repository free functions to the
// services.ArticleRepo interface expected by ArticleService. This keeps
// services decoupled from the concrete repo package while reusing the
// existing functions.
type articleRepoShim struct{}

func (articleRepoShim) CreateArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error {
	return repo.CreateArticle(ctx, db, a)
}

func (articleRepoShim) GetArticle(ctx context.Context, db *gorm.DB, id string) (*domain.Article, error) {
	return repo.GetArticle(ctx, db, id)
}

func (articleRepoShim) GetPublishedArticle(ctx context.Context, db *gorm.DB, id string) (*domain.Article, error) {
	return repo.GetPublishedArticle(ctx, db, id)
}

func (articleRepoShim) SaveArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error {
	return repo.SaveArticle(ctx, db, a)
}

func (articleRepoShim) DeleteArticle(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteArticle(ctx, db, id)
}

func (articleRepoShim) DeleteArticlesOwned(ctx context.Context, db *gorm.DB, ids []string, authorID string) (int64, error) {
	return repo.DeleteArticlesOwned(ctx, db, ids, authorID)
}

func (articleRepoShim) CountPublished(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountPublished(ctx, db)
}

func (articleRepoShim) ListPublishedPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Article, error) {
	return repo.ListPublishedPage(ctx, db, offset, limit)
}

func (articleRepoShim) CountOwned(ctx context.Context, db *gorm.DB, authorID string) (int64, error) {
	return repo.CountOwned(ctx, db, authorID)
}

func (articleRepoShim) ListOwnedPage(ctx context.Context, db *gorm.DB, authorID string, offset, limit int) ([]domain.Article, error) {
	return repo.ListOwnedPage(ctx, db, authorID, offset, limit)
}

// Options carries the optional collaborators. Any field may be nil; the
// corresponding endpoint degrades (dev-header auth, placeholder generation,
// no-op email, 503 uploads).
type Options struct {
	Verifier middleware.Verifier
	AI       services.TextGenerator
	Mailer   handlers.AccountMailer
	Uploader storage.Uploader
}

// App bundles the constructed services so the caller can attach background
// workers (reconciler, daily generation job) to the same instances the HTTP
// layer uses.
type App struct {
	Articles *services.ArticleService
	Editor   *services.EditorService
	Drafts   *draftstore.Store
	Gen      *services.Generator
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and returns the application services it wired.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. Gzip, CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, kvs kv.Store, cfg config.Config, opts Options) *App {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured request logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit, sized so multipart uploads fit
	r.Use(limitBody(12 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	r.Use(middleware.RateLimit(cfg.RateRPS, cfg.RateBurst))

	// 8) Compression, CORS, security headers
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/kv
	drafts := draftstore.New(kvs, cfg.Editor.DraftTTL)
	pageCache := cache.New(kvs, cfg.CacheTTL)

	articleSvc := services.NewArticleService(db, articleRepoShim{}, pageCache, drafts)
	articleSvc.MinContentLen = cfg.MinContentLen
	editorSvc := services.NewEditorService(drafts, articleSvc)

	gen := services.NewGenerator(articleSvc, opts.AI, zlog.Logger)
	gh := handlers.NewArticleHandlers(articleSvc, gen)

	eh := handlers.NewEditorHandlers(editorSvc)
	uh := handlers.NewUploadHandlers(opts.Uploader)
	wh := handlers.NewWebhookHandlers(opts.Mailer)

	auth := middleware.Auth(opts.Verifier)
	optional := middleware.OptionalAuth(opts.Verifier)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Articles
		api.GET("/articles/public", gh.ListPublished)
		api.GET("/articles/public/:id", gh.GetPublishedArticle)
		api.GET("/articles", auth, gh.ListMerged)
		api.GET("/articles/:id", optional, gh.GetArticle)
		api.POST("/articles", auth, gh.CreateArticle)
		api.PUT("/articles/:id", auth, gh.UpdateArticle)
		api.DELETE("/articles/:id", auth, gh.DeleteArticle)
		api.POST("/articles/bulk-delete", auth, gh.BulkDeleteArticles)
		api.POST("/articles/generate", auth, gh.GenerateArticle)

		// Editing sessions
		api.GET("/editor/draft", auth, eh.GetDraft)
		api.POST("/editor/heartbeat", auth, eh.Heartbeat)
		api.POST("/editor/stop", auth, eh.Stop)

		// Uploads
		api.POST("/upload", auth, uh.Upload)

		// Webhooks (provider-authenticated out of band)
		api.POST("/webhooks/identity", wh.IdentityWebhook)
	}

	return &App{Articles: articleSvc, Editor: editorSvc, Drafts: drafts, Gen: gen}
}

// corsMiddleware builds the CORS posture: allow-all when no origins are
// configured, strict allowlist otherwise.
func corsMiddleware(origins []string) gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-User-Name", "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
	} else {
		base.AllowOrigins = origins
	}
	return cors.New(base)
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Requests exceeding the cap cause downstream body
// reads to error.
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
