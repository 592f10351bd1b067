package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	TokenTTL           time.Duration
	Environment        string
	LogLevel           string
	SeedAdminEmail     string
	SeedAdminName      string
	RunMigrations      bool
	RunSeed            bool
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
	OTelEnabled        bool
	OTelSamplerRatio   float64
	ShutdownTimeout    time.Duration
}

// Load reads configuration from the environment. When CONFIG_FILE names a
// YAML file its keys fill in anything the environment leaves unset.
func Load() (Config, error) {
	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		values, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = values
	}

	return Config{
		Addr:               src.getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        src.getEnv("DATABASE_URL", "sqlite://kpitracker.db"),
		JWTSecret:          src.getEnv("JWT_SECRET", ""),
		TokenTTL:           src.getEnvDuration("TOKEN_TTL", 12*time.Hour),
		Environment:        src.getEnv("APP_ENV", "development"),
		LogLevel:           src.getEnv("LOG_LEVEL", "info"),
		SeedAdminEmail:     src.getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminName:      src.getEnv("SEED_ADMIN_NAME", "Administrator"),
		RunMigrations:      src.getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            src.getEnvBool("RUN_SEED", true),
		MaxBodyBytes:       int64(src.getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: src.getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:     src.getEnvBool("METRICS_ENABLED", true),
		OTelEnabled:        src.getEnvBool("OTEL_ENABLED", false),
		OTelSamplerRatio:   src.getEnvFloat("OTEL_SAMPLER_RATIO", 1),
		ShutdownTimeout:    src.getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}, nil
}

func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	values := make(map[string]string, len(doc))
	for key, value := range doc {
		if value == nil {
			continue
		}
		values[envKey(key)] = fmt.Sprint(value)
	}
	return values, nil
}

// envKey maps "database_url" and "database-url" to DATABASE_URL.
func envKey(key string) string {
	key = strings.NewReplacer("-", "_", ".", "_").Replace(strings.TrimSpace(key))
	return strings.ToUpper(key)
}

type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return s.file[key]
}

func (s source) getEnv(key, fallback string) string {
	if value := s.lookup(key); value != "" {
		return value
	}
	return fallback
}

func (s source) getEnvBool(key string, fallback bool) bool {
	value := s.lookup(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s source) getEnvInt(key string, fallback int) int {
	value := s.lookup(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s source) getEnvFloat(key string, fallback float64) float64 {
	value := s.lookup(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s source) getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := s.lookup(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && len(strings.TrimSpace(c.JWTSecret)) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.OTelSamplerRatio < 0 || c.OTelSamplerRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLER_RATIO must be between 0 and 1")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}
