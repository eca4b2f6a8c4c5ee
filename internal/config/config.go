// Package config loads settings from defaults, an optional config file,
// STATEMENT_EXTRACTOR_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

const envPrefix = "STATEMENT_EXTRACTOR"

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Config is the resolved application configuration.
type Config struct {
	Options models.Options `mapstructure:"options"`
	Output  OutputConfig   `mapstructure:"output"`
	Server  ServerConfig   `mapstructure:"server"`
	Log     LogConfig      `mapstructure:"log"`
}

// OutputConfig controls the file written by the extract command.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	BodyLimitMB int    `mapstructure:"body_limit_mb"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"remove-duplicates":     "options.remove_duplicates",
	"sort-by-date":          "options.sort_by_date",
	"include-extra-columns": "options.include_extra_columns",
	"format":                "output.format",
	"output-dir":            "output.dir",
	"addr":                  "server.addr",
	"log-level":             "log.level",
}

func setDefaults(v *viper.Viper) {
	def := models.DefaultOptions()
	v.SetDefault("options.remove_duplicates", def.RemoveDuplicates)
	v.SetDefault("options.sort_by_date", def.SortByDate)
	v.SetDefault("options.include_extra_columns", def.IncludeExtraColumns)
	v.SetDefault("output.format", FormatCSV)
	v.SetDefault("output.dir", ".")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.body_limit_mb", 32)
	v.SetDefault("log.level", "info")
}

// Build loads the configuration. cfgFile may be empty, in which case
// config.yaml is looked up in the working directory and silently skipped
// when absent. flags may be nil.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("unsupported output format %q; use csv or xlsx", c.Output.Format)
	}
	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("server.body_limit_mb must be positive, got %d", c.Server.BodyLimitMB)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
