package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:      30000, // 30 seconds
		Mode:         "buffer",
		Engine:       "net",
		MaxRedirects: 10,
		LogLevel:     "warn",
		Output:       "console",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.Mode == defaults.Mode &&
		c.Engine == defaults.Engine &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.LogLevel == defaults.LogLevel &&
		c.Output == defaults.Output &&
		c.ParseJSON == nil &&
		c.FollowRedirects == nil &&
		c.RequestID == nil &&
		c.NoColor == nil &&
		len(c.Headers) == 0
}
