package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App      AppSettings
	HTTP     HTTPSettings
	Auth     AuthSettings
	Log      LogSettings
	Database DatabaseSettings
	Audit    AuditSettings
	Portal   PortalSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IngestTimeout   time.Duration // Deadline for one ingestion request, portal calls included
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigin   string
}

// AuthSettings selects how bearer tokens are verified. JWKSetURI covers
// asymmetric issuers; Secret covers HS256 tokens signed with a shared key.
type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	Secret      string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	Schema          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
}

type AuditSettings struct {
	Enabled         bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

// PortalSettings configures access to the fiscal verification portal.
type PortalSettings struct {
	SpecificationsURL string
	AllowedHosts      []string // Hosts a source URL may point to. Empty allows any host
	APITimeout        time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int
	BreakerFailures   int           // Portal failures before calls fail fast
	BreakerCooldown   time.Duration // Time before a failing portal is probed again
	Currency          string
}

// Load resolves the application configuration from environment variables.
// Variables from a .env file are loaded first when present; variables set in
// the process environment take precedence.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_fiscal_receipts"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			IngestTimeout:   getEnvAsDuration("HTTP_INGEST_TIMEOUT", 45*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigin:   getEnv("CORS_ALLOWED_ORIGIN", "*"),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			Secret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "postgres"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			Schema:          getEnv("DB_SCHEMA", "expense_tracker"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			RunMigrations:   getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", true),
			LogRequestBody:  getEnvAsBool("AUDIT_LOG_REQUEST_BODY", true),
			LogResponseBody: getEnvAsBool("AUDIT_LOG_RESPONSE_BODY", false),
			MaxBodySize:     getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),
		},
		Portal: PortalSettings{
			SpecificationsURL: getEnv("SUF_SPECIFICATIONS_URL", "https://suf.purs.gov.rs/specifications"),
			AllowedHosts:      getEnvAsCSV("SUF_ALLOWED_HOSTS", []string{"suf.purs.gov.rs"}),
			APITimeout:        getEnvAsDuration("SUF_API_TIMEOUT", 20*time.Second),
			RateLimitRPS:      getEnvAsFloat("SUF_RATE_LIMIT_RPS", 5),
			RateLimitBurst:    getEnvAsInt("SUF_RATE_LIMIT_BURST", 10),
			BreakerFailures:   getEnvAsInt("SUF_BREAKER_MAX_FAILURES", 5),
			BreakerCooldown:   getEnvAsDuration("SUF_BREAKER_COOLDOWN", 30*time.Second),
			Currency:          strings.ToUpper(getEnv("INVOICE_CURRENCY", "RSD")),
		},
	}

	// An explicit empty value disables the host allow-list.
	if value, ok := os.LookupEnv("SUF_ALLOWED_HOSTS"); ok && strings.TrimSpace(value) == "" {
		cfg.Portal.AllowedHosts = nil
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.JWKSetURI == "" && cfg.Auth.Secret == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI or JWT_SECRET is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI != "" && cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when JWT_JWK_SET_URI is set")
		}
	}

	if cfg.Database.Schema == "" {
		return cfg, errors.New("invalid config: DB_SCHEMA must not be empty")
	}

	specURL, err := url.Parse(cfg.Portal.SpecificationsURL)
	if err != nil || specURL.Scheme == "" || specURL.Host == "" {
		return cfg, fmt.Errorf("invalid config: SUF_SPECIFICATIONS_URL must be an absolute URL, got %q", cfg.Portal.SpecificationsURL)
	}

	if cfg.Portal.RateLimitRPS < 0 {
		return cfg, errors.New("invalid config: SUF_RATE_LIMIT_RPS must not be negative")
	}
	if cfg.Portal.RateLimitRPS > 0 && cfg.Portal.RateLimitBurst <= 0 {
		return cfg, errors.New("invalid config: SUF_RATE_LIMIT_BURST must be greater than 0")
	}

	if len(cfg.Portal.Currency) != 3 {
		return cfg, errors.New("invalid config: INVOICE_CURRENCY must be a 3-letter code")
	}

	return cfg, nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
