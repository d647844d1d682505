// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage locations, editor-session tuning, and collaborator
// credentials (AI, email, object storage).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// EditorConfig tunes the ephemeral draft cache and its reconciliation. The
// staleness threshold must stay strictly larger than the scan interval (plus
// the client heartbeat period) or an active session could be flushed early.
type EditorConfig struct {
	DraftTTL     time.Duration // volatile draft/heartbeat key TTL
	StaleAfter   time.Duration // heartbeat age after which a session is flushed
	ScanInterval time.Duration // how often the reconciler scans for stale sessions
	StoreTimeout time.Duration // bound on each volatile/durable store call
}

// AIConfig configures the optional text-generation collaborator. An empty
// APIKey means the collaborator is absent and generation falls back to
// placeholder content.
type AIConfig struct {
	APIKey string // OPENAI_API_KEY
	Model  string // AI_MODEL
}

// EmailConfig configures outbound transactional email (Resend). An empty
// APIKey disables sending; failures are never fatal to the primary operation.
type EmailConfig struct {
	APIKey    string // RESEND_API_KEY
	FromEmail string // FROM_EMAIL
	AppURL    string // APP_URL, used in email links
}

// S3Config configures the object-storage collaborator for media uploads.
type S3Config struct {
	Bucket string // S3_BUCKET_NAME
	Region string // AWS_REGION
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool
	APIBasePath string

	// Storage
	DBPath   string // SQLite path (durable article store)
	RedisURL string // volatile store; empty selects the in-memory fallback

	// Editor sessions
	Editor   EditorConfig
	CacheTTL time.Duration // read-cache entry TTL

	// Content rules
	MinContentLen int // minimum article body length accepted by create

	// Identity collaborator; empty enables the dev header fallback
	IdentityURL string // IDENTITY_URL (token introspection endpoint)

	// Daily AI article job
	DailyGenerate bool

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Collaborators
	AI    AIConfig
	Email EmailConfig
	S3    S3Config

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "4000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		DBPath:   getenv("DB_PATH", "blog.db"),
		RedisURL: getenv("REDIS_URL", ""),

		Editor: EditorConfig{
			DraftTTL:     getdur("DRAFT_TTL", time.Hour),
			StaleAfter:   getdur("HEARTBEAT_TIMEOUT", 5*time.Minute),
			ScanInterval: getdur("HEARTBEAT_CHECK_INTERVAL", time.Minute),
			StoreTimeout: getdur("STORE_TIMEOUT", 5*time.Second),
		},
		CacheTTL: getdur("CACHE_TTL", time.Hour),

		MinContentLen: getint("MIN_CONTENT_LEN", 5),

		IdentityURL: getenv("IDENTITY_URL", ""),

		DailyGenerate: getbool("DAILY_GENERATE", false),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		AI: AIConfig{
			APIKey: getenv("OPENAI_API_KEY", ""),
			Model:  getenv("AI_MODEL", "gpt-4o-mini"),
		},
		Email: EmailConfig{
			APIKey:    getenv("RESEND_API_KEY", ""),
			FromEmail: getenv("FROM_EMAIL", "noreply@example.com"),
			AppURL:    getenv("APP_URL", "http://localhost:3000"),
		},
		S3: S3Config{
			Bucket: getenv("S3_BUCKET_NAME", ""),
			Region: getenv("AWS_REGION", ""),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-blog-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Editor.DraftTTL <= 0 {
		return cfg, errors.New("DRAFT_TTL must be > 0")
	}
	if cfg.Editor.ScanInterval <= 0 {
		return cfg, errors.New("HEARTBEAT_CHECK_INTERVAL must be > 0")
	}
	if cfg.Editor.StaleAfter <= cfg.Editor.ScanInterval {
		return cfg, errors.New("HEARTBEAT_TIMEOUT must be greater than HEARTBEAT_CHECK_INTERVAL")
	}
	if cfg.Editor.StoreTimeout <= 0 {
		return cfg, errors.New("STORE_TIMEOUT must be > 0")
	}
	if cfg.CacheTTL <= 0 {
		return cfg, errors.New("CACHE_TTL must be > 0")
	}
	if cfg.MinContentLen < 1 {
		return cfg, errors.New("MIN_CONTENT_LEN must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips any trailing '/'
// (except for the root path).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
