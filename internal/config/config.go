// Package config loads typedwidget settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TYPEDWIDGET_SERVER_ADDR.
const EnvPrefix = "TYPEDWIDGET"

// Config holds application configuration.
type Config struct {
	Definitions DefinitionsConfig `mapstructure:"definitions"`
	Builder     BuilderConfig     `mapstructure:"builder"`
	Server      ServerConfig      `mapstructure:"server"`
	Output      OutputConfig      `mapstructure:"output"`
	Log         LogConfig         `mapstructure:"log"`
}

// DefinitionsConfig points at definition sources.
type DefinitionsConfig struct {
	Dir     string `mapstructure:"dir"`
	OpenAPI string `mapstructure:"openapi"`
}

// BuilderConfig mirrors the builder options.
type BuilderConfig struct {
	IncludeNonRequired bool `mapstructure:"include_non_required"`
	IncludeReadOnly    bool `mapstructure:"include_read_only"`
	MaxDepth           int  `mapstructure:"max_depth"`
	Sanitize           bool `mapstructure:"sanitize"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// OutputConfig selects the CLI encoding.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Definitions: DefinitionsConfig{Dir: "definitions"},
		Builder: BuilderConfig{
			IncludeNonRequired: true,
			MaxDepth:           64,
			Sanitize:           true,
		},
		Server: ServerConfig{Addr: ":8080"},
		Output: OutputConfig{Format: "json"},
		Log:    LogConfig{Level: "info"},
	}
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"definitions":  "definitions.dir",
	"openapi":      "definitions.openapi",
	"non-required": "builder.include_non_required",
	"read-only":    "builder.include_read_only",
	"max-depth":    "builder.max_depth",
	"sanitize":     "builder.sanitize",
	"addr":         "server.addr",
	"format":       "output.format",
	"log-level":    "log.level",
}

// Load reads configuration with precedence flags > env > file > defaults.
// path may be empty, in which case TYPEDWIDGET_CONFIG and then
// ./typedwidget.yaml are tried. A missing default file is not an error. flags
// may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("typedwidget")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("config: bind flag %q: %w", name, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("definitions.dir", c.Definitions.Dir)
	v.SetDefault("definitions.openapi", c.Definitions.OpenAPI)
	v.SetDefault("builder.include_non_required", c.Builder.IncludeNonRequired)
	v.SetDefault("builder.include_read_only", c.Builder.IncludeReadOnly)
	v.SetDefault("builder.max_depth", c.Builder.MaxDepth)
	v.SetDefault("builder.sanitize", c.Builder.Sanitize)
	v.SetDefault("server.addr", c.Server.Addr)
	v.SetDefault("output.format", c.Output.Format)
	v.SetDefault("log.level", c.Log.Level)
}

// SlogLevel parses the configured log level. Unknown levels fall back to info.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}
