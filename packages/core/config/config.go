package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. JSONPOST_TIMEOUT.
const EnvPrefix = "JSONPOST"

// Config represents the jsonpost configuration
type Config struct {
	Timeout         int               `mapstructure:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	Mode            string            `mapstructure:"mode" json:"mode,omitempty" yaml:"mode,omitempty"`
	ParseJSON       *bool             `mapstructure:"parse_json" json:"parse_json,omitempty" yaml:"parse_json,omitempty"`
	Engine          string            `mapstructure:"engine" json:"engine,omitempty" yaml:"engine,omitempty"`
	FollowRedirects *bool             `mapstructure:"follow_redirects" json:"follow_redirects,omitempty" yaml:"follow_redirects,omitempty"`
	MaxRedirects    int               `mapstructure:"max_redirects" json:"max_redirects,omitempty" yaml:"max_redirects,omitempty"`
	Headers         map[string]string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for every request
	RequestID       *bool             `mapstructure:"request_id" json:"request_id,omitempty" yaml:"request_id,omitempty"`
	LogLevel        string            `mapstructure:"log_level" json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Output          string            `mapstructure:"output" json:"output,omitempty" yaml:"output,omitempty"`
	NoColor         *bool             `mapstructure:"no_color" json:"no_color,omitempty" yaml:"no_color,omitempty"`
}

var keys = []string{
	"timeout",
	"mode",
	"parse_json",
	"engine",
	"follow_redirects",
	"max_redirects",
	"headers",
	"request_id",
	"log_level",
	"output",
	"no_color",
}

var (
	validModes   = []string{"buffer", "stream"}
	validEngines = []string{"net", "resty"}
	validOutputs = []string{"console", "json", "yaml"}
)

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetParseJSON returns the parse JSON setting, defaulting to true
func (c *Config) GetParseJSON() bool {
	return getBool(c.ParseJSON, true)
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetRequestID returns the request ID setting, defaulting to false
func (c *Config) GetRequestID() bool {
	return getBool(c.RequestID, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration converts the millisecond timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".jsonpost.yaml",
	".jsonpost.yml",
	".jsonpost.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory.
// Without one, defaults plus environment overrides are returned.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return decode(newViper())
}

func loadConfigFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("mode", defaults.Mode)
	v.SetDefault("engine", defaults.Engine)
	v.SetDefault("max_redirects", defaults.MaxRedirects)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("output", defaults.Output)

	v.SetEnvPrefix(EnvPrefix)
	for _, key := range keys {
		_ = v.BindEnv(key) // only fails when no key is given
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown enum values and negative limits. A max_redirects
// of 0 is valid and means no redirect is followed, whichever engine is used.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %d (must not be negative)", c.Timeout)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("invalid max_redirects %d (must not be negative)", c.MaxRedirects)
	}
	if err := oneOf("mode", c.Mode, validModes); err != nil {
		return err
	}
	if err := oneOf("engine", c.Engine, validEngines); err != nil {
		return err
	}
	return oneOf("output", c.Output, validOutputs)
}

func oneOf(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (allowed: %s)", field, value, strings.Join(allowed, ", "))
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.Mode != "" {
		result.Mode = other.Mode
	}
	if other.Engine != "" {
		result.Engine = other.Engine
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.Output != "" {
		result.Output = other.Output
	}

	// Boolean flags - only override if explicitly set in other config
	if other.ParseJSON != nil {
		result.ParseJSON = other.ParseJSON
	}
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.RequestID != nil {
		result.RequestID = other.RequestID
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(c.Headers) > 0 || len(other.Headers) > 0 {
		result.Headers = make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			result.Headers[k] = v
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}

	return &result
}

// SaveConfig writes the configuration as JSON or YAML depending on the extension
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
