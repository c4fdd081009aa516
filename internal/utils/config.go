package utils

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	LogLevel  string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`

	// Output format for reports: text or json
	Format string `yaml:"format" mapstructure:"format"`

	// Color mode for text output: auto, always or never
	Color string `yaml:"color" mapstructure:"color"`

	// Symbols controls which symbol tables the symbols view shows by default
	Symbols SymbolsConfig `yaml:"symbols" mapstructure:"symbols"`
}

// SymbolsConfig holds symbol view configuration
type SymbolsConfig struct {
	// Table is the default table: symtab, dynsym or all
	Table string `yaml:"table" mapstructure:"table"`
}

// ConfigLoader handles configuration loading from file and environment
type ConfigLoader struct {
	v      *viper.Viper
	logger *Logger
}

// NewConfigLoader creates a new config loader
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{
		v:      viper.New(),
		logger: NewDefaultLogger(),
	}
}

// SetLogger sets the logger for the config loader
func (cl *ConfigLoader) SetLogger(logger *Logger) {
	cl.logger = logger
}

// Load loads configuration: defaults, then an optional YAML file, then
// ELFVIEW_* environment variables. An empty configFile means the standard
// search path (./.elfview.yaml, $HOME/.elfview.yaml).
func (cl *ConfigLoader) Load(configFile string) (*Config, error) {
	cl.setDefaults()

	cl.v.SetConfigType("yaml")
	cl.v.SetEnvPrefix("ELFVIEW")
	cl.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cl.v.AutomaticEnv()

	if configFile != "" {
		cl.v.SetConfigFile(configFile)
		if err := cl.v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", configFile)
		}
		cl.logger.WithComponent("config").Debugf("Loaded config from: %s", cl.v.ConfigFileUsed())
	} else {
		cl.v.SetConfigName(".elfview")
		cl.v.AddConfigPath(".")
		cl.v.AddConfigPath("$HOME")

		if err := cl.v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "read config file")
			}
		} else {
			cl.logger.WithComponent("config").Debugf("Loaded config from: %s", cl.v.ConfigFileUsed())
		}
	}

	config := &Config{}
	if err := cl.v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return config, nil
}

func (cl *ConfigLoader) setDefaults() {
	cl.v.SetDefault("log_level", "info")
	cl.v.SetDefault("log_format", "text")
	cl.v.SetDefault("format", "text")
	cl.v.SetDefault("color", "auto")
	cl.v.SetDefault("symbols.table", "symtab")
}

func validateConfig(c *Config) error {
	if err := validateChoice("log level", c.LogLevel, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if err := validateChoice("log format", c.LogFormat, "text", "json"); err != nil {
		return err
	}
	if err := validateChoice("format", c.Format, "text", "json"); err != nil {
		return err
	}
	if err := validateChoice("color", c.Color, "auto", "always", "never"); err != nil {
		return err
	}
	return validateChoice("symbols.table", c.Symbols.Table, "symtab", "dynsym", "all")
}

func validateChoice(name, value string, valid ...string) error {
	if value == "" {
		return nil
	}
	for _, v := range valid {
		if strings.EqualFold(value, v) {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %s (valid: %v)", name, value, valid)
}

// LoadDefaultConfig loads configuration without an explicit file
func LoadDefaultConfig() (*Config, error) {
	return NewConfigLoader().Load("")
}

// LoadConfigFromFile loads configuration from a specific file
func LoadConfigFromFile(filename string) (*Config, error) {
	return NewConfigLoader().Load(filename)
}
