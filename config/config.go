package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/volstore/database"
	"github.com/sagarc03/volstore/sandbox"
	"github.com/sagarc03/volstore/userbackend"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for the sandbox service.
type Config struct {
	// Env selects the log output: "prod" logs JSON, anything else is
	// colored text.
	Env      string             `mapstructure:"env" validate:"omitempty,oneof=dev prod production"`
	Server   ServerConfig       `mapstructure:"server"`
	Database database.Config    `mapstructure:"database"`
	Storage  StorageConfig      `mapstructure:"storage"`
	Auth     AuthConfig         `mapstructure:"auth"`
	Agent    AgentConfig        `mapstructure:"agent"`
	CORS     sandbox.CORSConfig `mapstructure:"cors"`
	Log      LogConfig          `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// PublicURL is the externally visible base URL. When empty the
	// connection URL handed to clients is derived from each request.
	PublicURL     string `mapstructure:"public_url" validate:"omitempty,url"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" validate:"min=0"`
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// AuthConfig holds token issuing configuration and the known users.
type AuthConfig struct {
	Secret   string                  `mapstructure:"secret" validate:"required,min=16"`
	Issuer   string                  `mapstructure:"issuer" validate:"required"`
	TokenTTL time.Duration           `mapstructure:"token_ttl" validate:"required,min=1s"`
	Users    userbackend.UsersConfig `mapstructure:"users"`
}

// AgentConfig holds storage agent behavior.
type AgentConfig struct {
	// ExistingDirStatus is the status answered when a directory already
	// exists: 409 Conflict or 202 Accepted.
	ExistingDirStatus int `mapstructure:"existing_dir_status" validate:"oneof=202 409"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":             "database.type",
	"db-dsn":              "database.dsn",
	"storage-path":        "storage.path",
	"port":                "server.port",
	"public-url":          "server.public_url",
	"secret":              "auth.secret",
	"users-file":          "auth.users.file",
	"existing-dir-status": "agent.existing_dir_status",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// DefaultSecret signs tokens when no secret is configured. Only suitable for
// local runs.
const DefaultSecret = "volstore-sandbox-insecure-secret"

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8880)
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "volstore.db")
	v.SetDefault("database.tables.volumes", "volumes")

	v.SetDefault("storage.path", "./data")

	v.SetDefault("auth.secret", DefaultSecret)
	v.SetDefault("auth.issuer", "volstore-sandbox")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.users.file", "")

	v.SetDefault("agent.existing_dir_status", 409)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("sandbox")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("VOLSTORE_SANDBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.Database.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
