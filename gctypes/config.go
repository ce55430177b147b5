package gctypes

// SystemProperties holds the small set of daemon-wide defaults the
// controller consults when no more specific policy applies (default ramp
// time, default volume step, leaf timeout, volume range, and the
// non-topology-route fallback). Grounded on bittoy-rule's types.Config.Properties map, but
// given a concrete struct here since this module's set of system
// properties is closed and small rather than an open plugin-defined bag.
type SystemProperties struct {
	DefaultRampTimeMS uint16
	DefaultVolumeStep int16
	LeafTimeoutMS     uint32
	VolumeMin         int16
	VolumeMax         int16
	// NonTopologyRouteAllowed mirrors the daemon's
	// "non-topology-route-allowed" system property: when set, the
	// resolver falls back to the daemon's first candidate route if no
	// configured topology validates against it, rather than failing the
	// connection outright.
	NonTopologyRouteAllowed bool
}

// DefaultSystemProperties returns the zero-configuration defaults used
// when a caller doesn't override them via WithSystemProperties.
func DefaultSystemProperties() SystemProperties {
	return SystemProperties{
		DefaultRampTimeMS:       1000,
		DefaultVolumeStep:       5,
		LeafTimeoutMS:           3000,
		VolumeMin:               -3000,
		VolumeMax:               0,
		NonTopologyRouteAllowed: false,
	}
}

// Config is the ambient, cross-cutting configuration every package in this
// module takes through its constructor: a Logger, a Clock, and the closed
// set of system properties. It deliberately does not carry the daemon
// client, persistence store, or policy engine — those are collaborator
// interfaces each owning package (dispatcher, controller) accepts
// directly, the way bittoy-rule's types.Config carries cross-cutting
// concerns (Logger, Parser, Udf registry) but leaves node-specific
// collaborators to each node's own Init call.
type Config struct {
	Logger     Logger
	Clock      Clock
	Properties SystemProperties
}

// Option configures a Config. Grounded on bittoy-rule/types/options.go's
// Option func(*Config) error pattern.
type Option func(*Config) error

// NewConfig builds a Config from the given options, defaulting Logger to
// DefaultLogger, Clock to RealClock, and Properties to
// DefaultSystemProperties when not overridden. Grounded on
// bittoy-rule/types/config.go's NewConfig(opts ...Option) Config.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		Logger:     DefaultLogger(),
		Clock:      RealClock{},
		Properties: DefaultSystemProperties(),
	}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}
