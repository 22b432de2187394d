package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

type Config struct {
	Server     ServerConfig
	DB         DatabaseConfig
	Models     ModelsConfig
	Alerting   AlertingConfig
	Geocoder   GeocoderConfig
	Thresholds Thresholds
	Tide       TideConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type ModelsConfig struct {
	Dir string
}

type AlertingConfig struct {
	ConfigPath string
}

type GeocoderConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// Thresholds map model confidence to an alert level. They are configuration,
// not algorithm: confidence < Yellow is GREEN, < Orange is YELLOW,
// < Red is ORANGE, and anything at or above Red is RED.
type Thresholds struct {
	Yellow float64
	Orange float64
	Red    float64
}

// LevelFor maps a confidence score in [0,1] to an alert level. Both endpoint
// values are valid inputs.
func (t Thresholds) LevelFor(confidence float64) models.AlertLevel {
	switch {
	case confidence >= t.Red:
		return models.AlertLevelRed
	case confidence >= t.Orange:
		return models.AlertLevelOrange
	case confidence >= t.Yellow:
		return models.AlertLevelYellow
	default:
		return models.AlertLevelGreen
	}
}

// TideConfig places the tide monitor and sets the heights, in meters, at
// which it raises alerts.
type TideConfig struct {
	Latitude   float64
	Longitude  float64
	HighTide   float64
	LowTide    float64
	StormSurge float64
}

type RateLimitConfig struct {
	RPS int
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		DB: DatabaseConfig{
			// Alerts are intentionally ephemeral; the default in-memory
			// database is lost on restart.
			Path: getEnv("DB_PATH", ":memory:"),
		},
		Models: ModelsConfig{
			Dir: getEnv("MODELS_DIR", "./models"),
		},
		Alerting: AlertingConfig{
			ConfigPath: getEnv("ALERTS_CONFIG", "./alerts_config.json"),
		},
		Geocoder: GeocoderConfig{
			Enabled: getEnvBool("GEOCODER_ENABLED", true),
			URL:     getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org/reverse"),
			Timeout: getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second),
		},
		Thresholds: Thresholds{
			Yellow: getEnvFloat("LEVEL_THRESHOLD_YELLOW", 0.3),
			Orange: getEnvFloat("LEVEL_THRESHOLD_ORANGE", 0.6),
			Red:    getEnvFloat("LEVEL_THRESHOLD_RED", 0.8),
		},
		Tide: TideConfig{
			Latitude:   getEnvFloat("TIDE_LATITUDE", 37.7749),
			Longitude:  getEnvFloat("TIDE_LONGITUDE", -122.4194),
			HighTide:   getEnvFloat("TIDE_HIGH_THRESHOLD", 3.0),
			LowTide:    getEnvFloat("TIDE_LOW_THRESHOLD", 0.5),
			StormSurge: getEnvFloat("TIDE_SURGE_THRESHOLD", 4.0),
		},
		RateLimit: RateLimitConfig{
			RPS: getEnvInt("RATE_LIMIT_RPS", 5),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	t := c.Thresholds
	if t.Yellow < 0 || t.Red > 1 {
		return fmt.Errorf("level thresholds must lie in [0,1]: yellow=%v red=%v", t.Yellow, t.Red)
	}
	if !(t.Yellow < t.Orange && t.Orange < t.Red) {
		return fmt.Errorf("level thresholds must be strictly increasing: yellow=%v orange=%v red=%v",
			t.Yellow, t.Orange, t.Red)
	}

	td := c.Tide
	if td.Latitude < -90 || td.Latitude > 90 || td.Longitude < -180 || td.Longitude > 180 {
		return fmt.Errorf("invalid tide monitor coordinates: %v, %v", td.Latitude, td.Longitude)
	}
	if !(td.LowTide < td.HighTide && td.HighTide < td.StormSurge) {
		return fmt.Errorf("tide thresholds must be strictly increasing: low=%v high=%v surge=%v",
			td.LowTide, td.HighTide, td.StormSurge)
	}

	if c.RateLimit.RPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s, got %d", c.RateLimit.RPS)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
