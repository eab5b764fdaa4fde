package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Sources SourcesConfig
	Poll    PollConfig
	Cache   CacheConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type SourcesConfig struct {
	SeismicBaseURL    string
	TsunamiAlertsURL  string
	TsunamiDerivedURL string
	PlatesURL         string
	NuclearURL        string
	NuclearTimeout    time.Duration
	HTTPTimeout       time.Duration // 0 leaves the client default
	StaticDataTTL     time.Duration
}

type PollConfig struct {
	DefaultInterval time.Duration
}

type CacheConfig struct {
	Retention     time.Duration
	PruneSchedule string
}

type DatabaseConfig struct {
	Backend string
	Path    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 20),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 100),
		},
		Sources: SourcesConfig{
			SeismicBaseURL:    getEnv("SEISMIC_BASE_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary"),
			TsunamiAlertsURL:  getEnv("TSUNAMI_ALERTS_URL", "https://api.weather.gov/alerts/active"),
			TsunamiDerivedURL: getEnv("TSUNAMI_DERIVED_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/significant_month.geojson"),
			PlatesURL:         getEnv("PLATES_URL", "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"),
			NuclearURL:        getEnv("NUCLEAR_URL", "https://raw.githubusercontent.com/cristianst85/GeoNuclearData/master/data/csv/denormalized/nuclear_power_plants.csv"),
			NuclearTimeout:    getEnvDuration("NUCLEAR_TIMEOUT", 10*time.Second),
			HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 0),
			StaticDataTTL:     getEnvDuration("STATIC_DATA_TTL", 24*time.Hour),
		},
		Poll: PollConfig{
			DefaultInterval: getEnvDuration("DEFAULT_POLL_INTERVAL", 5*time.Minute),
		},
		Cache: CacheConfig{
			Retention:     getEnvDuration("CACHE_RETENTION", 72*time.Hour),
			PruneSchedule: getEnv("CACHE_PRUNE_SCHEDULE", "@every 1h"),
		},
		DB: DatabaseConfig{
			Backend: getEnv("DB_BACKEND", BackendSQLite),
			Path:    getEnv("DB_PATH", "./data/hazard-watch.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
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
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimitRPS)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.DB.Backend != BackendSQLite && c.DB.Backend != BackendMemory {
		return fmt.Errorf("invalid db backend: %s", c.DB.Backend)
	}

	if c.Poll.DefaultInterval < 30*time.Second {
		return fmt.Errorf("default poll interval must be at least 30 seconds")
	}
	if c.Cache.Retention <= 0 {
		return fmt.Errorf("cache retention must be positive")
	}
	if c.Sources.NuclearTimeout <= 0 {
		return fmt.Errorf("nuclear timeout must be positive")
	}
	if c.Worker.Count < 1 || c.Worker.BufferSize < 1 {
		return fmt.Errorf("worker count and buffer size must be positive")
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
