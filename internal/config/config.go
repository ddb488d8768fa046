package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSessionSecret is only acceptable outside production.
const DefaultSessionSecret = "secret_key_change_me"

type Config struct {
	Port            string        `mapstructure:"port"`
	Env             string        `mapstructure:"env"`
	BaseURL         string        `mapstructure:"base_url"`
	SessionSecret   string        `mapstructure:"session_secret"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres or sqlite
	URL    string `mapstructure:"url"`
}

// RedisConfig holds the connection used by the ingestion guard.
// An empty URL disables the guard.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// BlobConfig holds the S3-compatible attachment store settings.
// An empty Endpoint disables uploads.
type BlobConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("session_secret", DefaultSessionSecret)
	v.SetDefault("shutdown_timeout", "10s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "host=localhost user=postgres password=postgres dbname=askhub port=5432 sslmode=disable")

	v.SetDefault("redis.url", "")

	v.SetDefault("blob.endpoint", "")
	v.SetDefault("blob.access_key", "")
	v.SetDefault("blob.secret_key", "")
	v.SetDefault("blob.bucket", "qna")
	v.SetDefault("blob.use_ssl", false)
	v.SetDefault("blob.public_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 128)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 16)
	v.SetDefault("log.compress", false)
}

// Load reads configuration from an optional .env file, an optional YAML file
// and the environment. Nested keys map to env vars with "_" (database.url -> DATABASE_URL).
func Load(path string) (*Config, error) {
	// .env is optional; the environment alone is enough in containers
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Env == "production" && (cfg.SessionSecret == "" || cfg.SessionSecret == DefaultSessionSecret) {
		return nil, fmt.Errorf("session_secret must be set in production")
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return cfg, nil
}
