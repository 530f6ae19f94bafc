package config

import "time"

// CurrentConfigVersion is the config schema version this build understands.
const CurrentConfigVersion = 1

// Config is the on-disk configuration loaded from config.yaml.
type Config struct {
	Version int `yaml:"version,omitempty" mapstructure:"version"`

	// Hosts lists the engines to monitor, in display order.
	Hosts []HostConfig `yaml:"hosts" mapstructure:"hosts"`

	// RefreshInterval is how often the dashboard is redrawn.
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty" mapstructure:"refresh_interval"`

	// ConnectTimeout bounds the initial connect and ping of each host.
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty" mapstructure:"connect_timeout"`

	// Smoothing is the exponential moving average factor applied to CPU and
	// memory readings, in (0, 1]. Zero or one disables smoothing.
	Smoothing float64 `yaml:"smoothing,omitempty" mapstructure:"smoothing"`

	// MetricsAddr enables the Prometheus exporter when non-empty (e.g. ":9184").
	MetricsAddr string `yaml:"metrics_addr,omitempty" mapstructure:"metrics_addr"`
}

// HostConfig is one entry in the hosts list.
type HostConfig struct {
	// Host is the connection string: local, unix:///path, ssh://user@host[:port] or tcp://host:port.
	Host string `yaml:"host" mapstructure:"host"`

	// Dozzle is an optional log viewer URL shown for this host's containers.
	Dozzle string `yaml:"dozzle,omitempty" mapstructure:"dozzle"`
}

// Defaults applied when the config omits a value.
const (
	DefaultRefreshInterval = 500 * time.Millisecond
	DefaultConnectTimeout  = 10 * time.Second
	MinRefreshInterval     = 50 * time.Millisecond
)

// DefaultConfig returns a Config with sensible defaults and no hosts.
func DefaultConfig() *Config {
	return &Config{
		Version:         CurrentConfigVersion,
		Hosts:           []HostConfig{},
		RefreshInterval: DefaultRefreshInterval,
		ConnectTimeout:  DefaultConnectTimeout,
	}
}
