// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types (struct), and validates that
// required values are present so they can be reused across the
// application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the prefix PATIENTS_.

	Keys are lowercased, the prefix is removed, and a double underscore
	marks one level of nesting so that single underscores can stay inside
	key names:

	  PATIENTS_SERVER__PORT          -> server.port
	  PATIENTS_SERVER__READ_TIMEOUT  -> server.read_timeout
	  PATIENTS_STORAGE__FILE_PATH    -> storage.file_path
*/

// EnvPrefix is the prefix every configuration variable must carry.
const EnvPrefix = "PATIENTS_"

// Storage drivers understood by the repository layer.
const (
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

// Config is the root configuration object for the application.
//
// Blocks that are pointers are optional. Database and Redis become
// mandatory only when the selected storage driver needs them.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Storage       StorageConfig        `koanf:"storage" validate:"required"`
	Database      *DatabaseConfig      `koanf:"database" validate:"omitempty"`
	Redis         *RedisConfig         `koanf:"redis" validate:"omitempty"`
	Auth          *AuthConfig          `koanf:"auth" validate:"omitempty"`
	Integration   *IntegrationConfig   `koanf:"integration" validate:"omitempty"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// RateLimit is requests per second per client IP. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=0"`
}

// StorageConfig selects where patient records live.
type StorageConfig struct {
	Driver   string `koanf:"driver" validate:"required,oneof=file postgres redis"`
	FilePath string `koanf:"file_path" validate:"required_if=Driver file"`
	RedisKey string `koanf:"redis_key" validate:"required_if=Driver redis"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details.
// Address is typically "host:port".
type RedisConfig struct {
	Address  string `koanf:"address" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

// AuthConfig stores authentication-related secrets.
//
// When present, mutating patient routes require a Clerk session token.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
}

// IntegrationConfig holds credentials for third-party providers.
//
// AlertRecipient receives verdict alert emails. Leaving it empty keeps
// the alert job from being enqueued at all.
type IntegrationConfig struct {
	ResendAPIKey   string `koanf:"resend_api_key" validate:"required"`
	AlertRecipient string `koanf:"alert_recipient" validate:"omitempty,email"`
	SenderName     string `koanf:"sender_name"`
	SenderAddress  string `koanf:"sender_address" validate:"omitempty,email"`
}

// DefaultConfig returns the values used for anything the environment
// leaves unset. koanf only overwrites keys it actually finds.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
			RateLimit:          20,
			RateBurst:          40,
		},
		Storage: StorageConfig{
			Driver:   StorageDriverFile,
			FilePath: "./data.json",
			RedisKey: "patients",
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// Load loads configuration from environment variables, unmarshals it into
// Config on top of DefaultConfig, validates it, applies observability
// defaults, and returns the resulting config.
//
// Unlike a fatal-on-error loader, every failure is returned so that the
// caller (usually main) decides how loudly to die.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := DefaultConfig()

	// Unmarshal from the root key path into the pre-filled defaults.
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment are forced regardless of what the user set,
	// so that logs and traces always agree with Primary.Env.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// Validate runs the struct-tag validator and the cross-block rules that
// tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database == nil {
			return fmt.Errorf("config validation failed: storage driver %q requires the database block", c.Storage.Driver)
		}
	case StorageDriverRedis:
		if c.Redis == nil {
			return fmt.Errorf("config validation failed: storage driver %q requires the redis block", c.Storage.Driver)
		}
	}

	return nil
}

// AuthEnabled reports whether mutating routes must be authenticated.
func (c *Config) AuthEnabled() bool {
	return c.Auth != nil && c.Auth.SecretKey != ""
}

// AlertsEnabled reports whether verdict alert emails can be sent.
func (c *Config) AlertsEnabled() bool {
	return c.Redis != nil && c.Integration != nil && c.Integration.AlertRecipient != ""
}
