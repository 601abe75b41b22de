package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	HistoryStore = "store"
	HistoryFile  = "file"

	SinkLocal = "local"
	SinkMinio = "minio"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	Store             string        `mapstructure:"STORE"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	NATSURL           string        `mapstructure:"NATS_URL"`
	SessionSigningKey string        `mapstructure:"SESSION_SIGNING_KEY"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	HistoryBackend    string        `mapstructure:"HISTORY_BACKEND"`
	HistoryDir        string        `mapstructure:"HISTORY_DIR"`
	DocumentSink      string        `mapstructure:"DOCUMENT_SINK"`
	DocumentDir       string        `mapstructure:"DOCUMENT_DIR"`
	MinioEndpoint     string        `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey    string        `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey    string        `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket       string        `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL       bool          `mapstructure:"MINIO_USE_SSL"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
}

var keys = []string{
	"PORT", "ENV", "STORE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "NATS_URL", "SESSION_SIGNING_KEY", "SESSION_TTL",
	"HISTORY_BACKEND", "HISTORY_DIR", "DOCUMENT_SINK", "DOCUMENT_DIR",
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET",
	"MINIO_USE_SSL", "CORS_ORIGINS", "REQUEST_TIMEOUT", "RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST", "BODY_LIMIT",
}

// Load reads the configuration from the environment, after merging a .env
// file from the working directory when one exists. Variables already set in
// the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE", StorePostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("HISTORY_BACKEND", HistoryStore)
	v.SetDefault("HISTORY_DIR", "./history")
	v.SetDefault("DOCUMENT_SINK", SinkLocal)
	v.SetDefault("DOCUMENT_DIR", "./documents")
	v.SetDefault("MINIO_BUCKET", "mediclass-documents")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("BODY_LIMIT", "1M")

	// Unmarshal only sees keys viper knows about.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE is %q", StorePostgres)
		}
	case StoreMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORE=%q is not allowed in production", StoreMemory)
		}
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}

	switch c.HistoryBackend {
	case HistoryStore:
	case HistoryFile:
		if c.HistoryDir == "" {
			return fmt.Errorf("HISTORY_DIR is required when HISTORY_BACKEND is %q", HistoryFile)
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be %q or %q, got %q", HistoryStore, HistoryFile, c.HistoryBackend)
	}

	switch c.DocumentSink {
	case SinkLocal:
		if c.DocumentDir == "" {
			return fmt.Errorf("DOCUMENT_DIR is required when DOCUMENT_SINK is %q", SinkLocal)
		}
	case SinkMinio:
		if c.MinioEndpoint == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" || c.MinioBucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required when DOCUMENT_SINK is %q", SinkMinio)
		}
	default:
		return fmt.Errorf("DOCUMENT_SINK must be %q or %q, got %q", SinkLocal, SinkMinio, c.DocumentSink)
	}

	if !c.IsDev() && len(c.SessionSigningKey) < 32 {
		return fmt.Errorf("SESSION_SIGNING_KEY must be at least 32 bytes outside development")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
