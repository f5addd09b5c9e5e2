package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	AppPort  string
	Env      string
	LogLevel string

	DBDriver       string // "postgres" or "sqlite"
	DatabaseDSN    string
	DBMaxOpenConns int

	JWTSecret string
	TokenTTL  time.Duration

	RedisURL string // empty disables the read cache
	CacheTTL time.Duration

	RabbitMQURL string // empty disables event publishing

	OpenAIAPIKey  string
	OpenAIBaseURL string
	AIModel       string
	AITimeout     time.Duration

	UploadDir      string
	UploadBaseURL  string
	UploadMaxBytes int64
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=querystack port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_TIMEOUT", "20s")
	v.SetDefault("UPLOAD_DIR", "data/uploads")
	v.SetDefault("UPLOAD_BASE_URL", "/uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 5*1024*1024)
}

// Load reads configuration from the environment, falling back to defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		Env:            v.GetString("ENV"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		DBDriver:       v.GetString("DB_DRIVER"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		RedisURL:       v.GetString("REDIS_URL"),
		CacheTTL:       v.GetDuration("CACHE_TTL"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		OpenAIAPIKey:   v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:  v.GetString("OPENAI_BASE_URL"),
		AIModel:        v.GetString("AI_MODEL"),
		AITimeout:      v.GetDuration("AI_TIMEOUT"),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		UploadBaseURL:  v.GetString("UPLOAD_BASE_URL"),
		UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	return nil
}
