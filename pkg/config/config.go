package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	API     APIConfig
	Cache   CacheConfig
	CORS    CORSConfig
	Log     LogConfig
	Exports ExportsConfig
	Pages   PagesConfig
}

// APIConfig points the console at the remote school API.
type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// CacheConfig tunes the query cache and batch resolution.
type CacheConfig struct {
	BatchSize     int
	StaleTime     time.Duration
	GCTime        time.Duration
	SweepSchedule string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportsConfig configures asynchronous roster exports.
type ExportsConfig struct {
	StorageDir        string
	TTL               time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	SigningSecret     string
	LinkTTL           time.Duration
}

// PagesConfig bounds how long an unused selection session is kept.
type PagesConfig struct {
	IdleTimeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Token:   v.GetString("API_TOKEN"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 10*time.Second),
	}

	batchSize := v.GetInt("BATCH_SIZE")
	if batchSize <= 0 {
		batchSize = 20
	}
	cfg.Cache = CacheConfig{
		BatchSize:     batchSize,
		StaleTime:     parseDuration(v.GetString("CACHE_STALE_TIME"), 0),
		GCTime:        parseDuration(v.GetString("CACHE_GC_TIME"), 5*time.Minute),
		SweepSchedule: v.GetString("CACHE_SWEEP_SCHEDULE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		TTL:               parseDuration(v.GetString("EXPORTS_TTL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
		SigningSecret:     v.GetString("EXPORTS_SIGNING_SECRET"),
		LinkTTL:           parseDuration(v.GetString("EXPORTS_LINK_TTL"), 15*time.Minute),
	}

	cfg.Pages = PagesConfig{IdleTimeout: parseDuration(v.GetString("PAGE_IDLE_TIMEOUT"), 30*time.Minute)}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8090)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("API_BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("API_TOKEN", "")
	v.SetDefault("API_TIMEOUT", "10s")

	v.SetDefault("BATCH_SIZE", 20)
	v.SetDefault("CACHE_STALE_TIME", "0s")
	v.SetDefault("CACHE_GC_TIME", "5m")
	v.SetDefault("CACHE_SWEEP_SCHEDULE", "@every 1m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_TTL", "24h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)
	v.SetDefault("EXPORTS_SIGNING_SECRET", "")
	v.SetDefault("EXPORTS_LINK_TTL", "15m")

	v.SetDefault("PAGE_IDLE_TIMEOUT", "30m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
