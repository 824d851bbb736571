package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string        `env:"PORT,      default=6644"`
	Env      string        `env:"ENV,       default=development"`
	LogLevel string        `env:"LOG_LEVEL, default=info"`
	TokenTTL time.Duration `env:"TOKEN_TTL, default=12h"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Login    LoginConfig
	Firebase FirebaseConfig
	Audit    AuditConfig
}

type MongoConfig struct {
	URI          string        `env:"MONGO_URI,            default=mongodb://localhost:27017"`
	Database     string        `env:"MONGO_DB,             default=hcgateway"`
	UserDBPrefix string        `env:"MONGO_USER_DB_PREFIX, default=hcgateway_"`
	Timeout      time.Duration `env:"MONGO_TIMEOUT,        default=10s"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// LoginConfig bounds failed password attempts per username.
type LoginConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=10"`
	LockWindow  time.Duration `env:"LOGIN_LOCK_WINDOW,  default=15m"`
}

// FirebaseConfig selects the project used for device messages. Messaging is
// disabled when ProjectID is empty.
type FirebaseConfig struct {
	ProjectID       string `env:"FCM_PROJECT_ID"`
	CredentialsFile string `env:"FCM_CREDENTIALS_FILE"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// IsProduction reports whether the service runs with production defaults
// (JSON logs, no console colouring).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return &cfg, nil
}
