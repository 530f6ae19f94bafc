package config

import (
	"fmt"
	"net/url"

	"github.com/rileyhilliard/dtui/internal/errors"
	"github.com/rileyhilliard/dtui/internal/host"
)

// Validate checks the loaded configuration for errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Config is from the future (version %d, but dtui only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest dtui: https://github.com/rileyhilliard/dtui/releases")
	}

	if cfg.RefreshInterval != 0 && cfg.RefreshInterval < MinRefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_interval %s is too short", cfg.RefreshInterval),
			fmt.Sprintf("Use at least %s.", MinRefreshInterval))
	}

	if cfg.ConnectTimeout < 0 {
		return errors.New(errors.ErrConfig,
			"connect_timeout can't be negative",
			"Use a duration like '10s', or leave it out for the default.")
	}

	if cfg.Smoothing < 0 || cfg.Smoothing > 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("smoothing %.2f is out of range", cfg.Smoothing),
			"Use a factor between 0 and 1, e.g. 0.3. Leave it out to show raw readings.")
	}

	specs := make([]host.Spec, 0, len(cfg.Hosts))
	for i, h := range cfg.Hosts {
		if h.Host == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Host entry #%d has no 'host' value", i+1),
				"Every entry under 'hosts' needs a connection string, e.g. 'host: ssh://user@server'.")
		}
		spec, err := host.Parse(h.Host)
		if err != nil {
			return err
		}
		if err := validateDashboard(h); err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	return validateUniqueIDs(specs)
}

func validateDashboard(h HostConfig) error {
	if h.Dozzle == "" {
		return nil
	}
	u, err := url.Parse(h.Dozzle)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Dozzle link '%s' for host '%s' isn't a valid URL", h.Dozzle, h.Host),
			"Use a full URL like 'http://server:8080'.")
	}
	return nil
}

// validateUniqueIDs rejects two specs that would share a host identifier,
// since their containers would be merged under one key space.
func validateUniqueIDs(specs []host.Spec) error {
	seen := make(map[string]string, len(specs))
	for _, s := range specs {
		id := s.ID()
		if prev, ok := seen[id]; ok {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Hosts '%s' and '%s' both resolve to '%s'", prev, s.Address, id),
				"Each host needs a distinct user@host or host name. Ports are not part of the identifier.")
		}
		seen[id] = s.Address
	}
	return nil
}
