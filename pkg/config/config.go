// Package config loads configuration for the list builder.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"domainkit/pkg/build"
	"domainkit/pkg/filtering"
)

const (
	defaultConfigPath = "/etc/domainkit/domainkit.toml"
	configEnvVar      = "DOMAINKIT_CONFIG"
)

// Config contains all runtime options of domainkit.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Build   BuildConfig   `mapstructure:"build"`
	Output  OutputConfig  `mapstructure:"output"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	Lists map[string]filtering.ListConfig `mapstructure:"-"`

	// Path is the file the configuration was read from.
	Path string `mapstructure:"-"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	// ErrorLimit caps logged rejections per list; -1 logs all of them.
	ErrorLimit int `mapstructure:"error_limit"`
}

// BuildConfig holds pipeline settings.
type BuildConfig struct {
	CacheDir       string        `mapstructure:"cache_dir"`
	UpdateInterval time.Duration `mapstructure:"-"`
	DebugDomain    string        `mapstructure:"debug_domain"`
	Allowlist      []string      `mapstructure:"allowlist"`
	AllowlistFile  string        `mapstructure:"allowlist_file"`
	RejectedLog    string        `mapstructure:"rejected_log"`
	Custom         []string      `mapstructure:"custom"`
}

// OutputConfig holds artifact settings.
type OutputConfig struct {
	Path        string `mapstructure:"path"`
	Format      string `mapstructure:"format"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// ValidateLogLevel ensures the user-provided log level matches the supported set.
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", level)
	}
	return nil
}

// ValidateFormat ensures the artifact format is supported.
func ValidateFormat(format string) error {
	_, err := build.ParseFormat(format)
	return err
}

// ValidateKind ensures a list kind is supported.
func ValidateKind(kind string) error {
	_, err := filtering.ParseKind(kind)
	return err
}

// Flags registers the command-line flags Setup understands.
func Flags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to the configuration file (default $"+configEnvVar+" or "+defaultConfigPath+")")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Duration("interval", 0, "rebuild interval; zero builds once")
}

// Setup loads the TOML configuration file and produces a Config instance.
// Flags registered with Flags override the file; flags may be nil.
func Setup(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath(flags))
	v.SetConfigType("toml")
	setDefaults(v)
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(v)
}

func configPath(flags *pflag.FlagSet) string {
	if flags != nil {
		if path, err := flags.GetString("config"); err == nil && strings.TrimSpace(path) != "" {
			return path
		}
	}
	if fromEnv := strings.TrimSpace(os.Getenv(configEnvVar)); fromEnv != "" {
		return fromEnv
	}
	return defaultConfigPath
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	bindings := map[string]string{
		"logging.level":         "log-level",
		"build.update_interval": "interval",
	}
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "stdout")
	v.SetDefault("logging.error_limit", 20)
	v.SetDefault("build.cache_dir", "/var/cache/domainkit")
	v.SetDefault("build.update_interval", "")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.title", "domainkit")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Path = v.ConfigFileUsed()

	listConfigs, err := parseListConfigs(v)
	if err != nil {
		return nil, err
	}
	cfg.Lists = listConfigs

	cfg.Build.UpdateInterval, err = parseDuration(v.GetString("build.update_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid build.update_interval: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseDuration(raw string) (time.Duration, error) {
	if raw == "" || raw == "0" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

func validateConfig(cfg *Config) error {
	if err := ValidateLogLevel(cfg.Logging.Level); err != nil {
		return err
	}
	if cfg.Logging.ErrorLimit < -1 {
		return errors.New("logging.error_limit must be >= -1")
	}
	if cfg.Build.UpdateInterval < 0 {
		return errors.New("build.update_interval must not be negative")
	}
	if err := ValidateFormat(cfg.Output.Format); err != nil {
		return fmt.Errorf("invalid output.format: %w", err)
	}
	for id, list := range cfg.Lists {
		if err := ValidateKind(list.Kind); err != nil {
			return fmt.Errorf("invalid lists.%s.kind: %w", id, err)
		}
	}
	return nil
}

func parseListConfigs(v *viper.Viper) (map[string]filtering.ListConfig, error) {
	raw := v.GetStringMap("lists")
	listConfigs := make(map[string]filtering.ListConfig, len(raw))
	for key, value := range raw {
		subMap, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("lists.%s must be a table", key)
		}
		var cfg filtering.ListConfig
		if err := mapstructure.Decode(subMap, &cfg); err != nil {
			return nil, fmt.Errorf("parse lists.%s: %w", key, err)
		}
		listConfigs[strings.ToLower(key)] = cfg
	}
	return listConfigs, nil
}
