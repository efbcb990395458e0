package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Application credentials
	CorpID  string
	Secret  string
	AgentID int64
	BaseURL string

	// Gateway server
	Port     int
	LogLevel string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxConcurrency int
	LookupWorkers  int

	// Token cache; zero fetches a token on every call
	TokenCacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Gateway auth; an empty secret disables auth
	JWTSecret string
	JWTTTL    time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		CorpID:  getEnv("WECOM_CORP_ID", ""),
		Secret:  getEnv("WECOM_SECRET", ""),
		AgentID: getEnvInt64("WECOM_AGENT_ID", 0),
		BaseURL: strings.TrimRight(getEnv("WECOM_BASE_URL", "https://qyapi.weixin.qq.com"), "/"),

		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),
		LookupWorkers:  getEnvInt("LOOKUP_WORKERS", 8),

		TokenCacheTTL: getEnvDuration("TOKEN_CACHE_TTL", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret: getEnv("GATEWAY_JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("GATEWAY_TOKEN_TTL", time.Hour),
	}
}

// Credentials returns the application credentials.
func (c *Config) Credentials() domain.Credentials {
	return domain.Credentials{CorpID: c.CorpID, Secret: c.Secret, AgentID: c.AgentID}
}

// Validate reports the first missing credential.
func (c *Config) Validate() error {
	switch {
	case c.CorpID == "":
		return &domain.ErrValidation{Field: "WECOM_CORP_ID", Message: "required"}
	case c.Secret == "":
		return &domain.ErrValidation{Field: "WECOM_SECRET", Message: "required"}
	case c.AgentID <= 0:
		return &domain.ErrValidation{Field: "WECOM_AGENT_ID", Message: "must be a positive integer"}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
