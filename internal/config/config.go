package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string `validate:"required,url"`

	// UpstreamTimeout bounds every call to the weather provider.
	UpstreamTimeout time.Duration `validate:"gt=0"`
	// UpstreamBreakerThreshold is the consecutive-failure count that opens the
	// circuit breaker (0 = never).
	UpstreamBreakerThreshold int `validate:"gte=0"`

	// Session lifecycle.
	SessionTTL           time.Duration `validate:"gt=0"`
	SessionRetention     time.Duration `validate:"gtefield=SessionTTL"`
	SessionSweepInterval time.Duration `validate:"gt=0"`

	LogLevel slog.Level
	Port     string `validate:"required,numeric"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("config: no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")

	var err error
	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	cfg.UpstreamBreakerThreshold = getenvInt("UPSTREAM_BREAKER_THRESHOLD", 0)

	if cfg.SessionTTL, err = getenvDuration("SESSION_TTL", "60s"); err != nil {
		return nil, err
	}
	if cfg.SessionRetention, err = getenvDuration("SESSION_RETENTION", "5m"); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getenvDuration("SESSION_SWEEP_INTERVAL", "30s"); err != nil {
		return nil, err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenvDefault("LOG_LEVEL", "INFO"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.Port = getenvDefault("PORT", "8000")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.OpenWeatherAPIKey == "" {
		slog.Warn("config: OPENWEATHER_API_KEY is not set; weather calls will fail")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
