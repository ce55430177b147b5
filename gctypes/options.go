package gctypes

// WithLogger overrides the default Logger. Grounded on
// bittoy-rule/types/options.go's WithLogger.
func WithLogger(l Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// WithClock overrides the default Clock. Leaf timeouts are armed with
// time.AfterFunc by handlestore.Store and are not driven by this Clock.
func WithClock(clk Clock) Option {
	return func(c *Config) error {
		c.Clock = clk
		return nil
	}
}

// WithSystemProperties overrides the default SystemProperties.
func WithSystemProperties(p SystemProperties) Option {
	return func(c *Config) error {
		c.Properties = p
		return nil
	}
}
