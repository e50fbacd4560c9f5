package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/tobi/database"
	tobihttp "github.com/sagarc03/tobi/http"
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

// Config is the root configuration struct for tobi.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Admin     AdminConfig     `mapstructure:"admin" yaml:"admin"`
	AccessLog AccessLogConfig `mapstructure:"access_log" yaml:"access_log"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds the file server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	Path            string        `mapstructure:"path" yaml:"path" validate:"required"`
	MaxConnections  int64         `mapstructure:"max_connections" yaml:"max_connections" validate:"min=0"`
	MaxRequestBytes int           `mapstructure:"max_request_bytes" yaml:"max_request_bytes" validate:"min=0"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
}

// AdminConfig holds the admin API listener configuration.
type AdminConfig struct {
	Enabled bool                `mapstructure:"enabled" yaml:"enabled"`
	Host    string              `mapstructure:"host" yaml:"host"`
	Port    int                 `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	CORS    tobihttp.CORSConfig `mapstructure:"cors" yaml:"cors"`
}

// AccessLogConfig holds access log persistence configuration.
type AccessLogConfig struct {
	Enabled   bool            `mapstructure:"enabled" yaml:"enabled"`
	Retention time.Duration   `mapstructure:"retention" yaml:"retention" validate:"min=0"`
	Database  database.Config `mapstructure:"database" yaml:"database"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=pretty json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"host":              "server.host",
	"port":              "server.port",
	"root":              "server.path",
	"max-connections":   "server.max_connections",
	"max-request-bytes": "server.max_request_bytes",
	"read-timeout":      "server.read_timeout",
	"admin":             "admin.enabled",
	"admin-port":        "admin.port",
	"access-log":        "access_log.enabled",
	"db-type":           "access_log.database.type",
	"db-dsn":            "access_log.database.dsn",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
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

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.path", "./html/")
	v.SetDefault("server.max_connections", 256)
	v.SetDefault("server.max_request_bytes", 64<<10)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.host", "127.0.0.1")
	v.SetDefault("admin.port", 8001)

	v.SetDefault("access_log.enabled", false)
	v.SetDefault("access_log.retention", "720h")
	v.SetDefault("access_log.database.type", "sqlite")
	v.SetDefault("access_log.database.dsn", "tobi.db")
	v.SetDefault("access_log.database.tables.access_log", "tobi_access_log")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

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
		v.SetConfigName("tobi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("TOBI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.AccessLog.Enabled {
		if err := cfg.AccessLog.Database.Tables.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}

	return &cfg, nil
}
