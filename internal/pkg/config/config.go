package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// AccessPolicyFile is a YAML access table. Empty selects the built-in one.
	AccessPolicyFile   string   `env:"ACCESS_POLICY_FILE"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:5173,http://localhost:5174,http://localhost:3000,http://localhost:3001,https://bgi-launchpad-frontend-zzxk.vercel.app"`

	JWT   JWTConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type JWTConfig struct {
	Secret string `env:"JWT_SECRET"`
	// SecretFile, when set, holds the signing secret and wins over Secret.
	SecretFile string        `env:"JWT_SECRET_FILE"`
	Issuer     string        `env:"JWT_ISSUER,        default=bgi-launchpad"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	BcryptCost int           `env:"BCRYPT_COST,       default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=launchpad"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,             default=localhost:6379"`
	DB       int           `env:"REDIS_DB,               default=0"`
	LockTTL  time.Duration `env:"REGISTRATION_LOCK_TTL,  default=10s"`
	LockWait time.Duration `env:"REGISTRATION_LOCK_WAIT, default=2s"`
}

// ReadSecret returns the signing secret, reading SecretFile when configured.
func (c JWTConfig) ReadSecret() (string, error) {
	if c.SecretFile == "" {
		return c.Secret, nil
	}
	data, err := os.ReadFile(c.SecretFile)
	if err != nil {
		return "", fmt.Errorf("config: read JWT_SECRET_FILE: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Production reports whether the service runs with production settings.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l. Tests pass an envconfig.MapLookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.JWT.Secret == "" && cfg.JWT.SecretFile == "" {
		return nil, fmt.Errorf("config: one of JWT_SECRET or JWT_SECRET_FILE is required")
	}
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return nil, fmt.Errorf("config: token lifetimes must be positive")
	}
	if cfg.JWT.AccessTTL >= cfg.JWT.RefreshTTL {
		return nil, fmt.Errorf("config: ACCESS_TOKEN_TTL (%s) must be shorter than REFRESH_TOKEN_TTL (%s)", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	}
	return &cfg, nil
}
