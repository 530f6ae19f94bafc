package config

import (
	"github.com/rileyhilliard/dtui/internal/host"
)

// ResolveHosts produces the ordered host list handed to the engine.
//
// Hosts given on the command line replace the configured ones entirely. A
// command-line host that also appears in the config keeps its Dozzle link.
// With neither, the local engine is monitored.
func ResolveHosts(cfg *Config, cliHosts []string) ([]host.Spec, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	dashboards := make(map[string]string, len(cfg.Hosts))
	for _, h := range cfg.Hosts {
		if h.Dozzle != "" {
			dashboards[h.Host] = h.Dozzle
		}
	}

	var entries []HostConfig
	switch {
	case len(cliHosts) > 0:
		for _, raw := range cliHosts {
			entries = append(entries, HostConfig{Host: raw, Dozzle: dashboards[raw]})
		}
	case len(cfg.Hosts) > 0:
		entries = cfg.Hosts
	default:
		return []host.Spec{host.MustParse(host.LocalID)}, nil
	}

	specs := make([]host.Spec, 0, len(entries))
	for _, e := range entries {
		spec, err := host.Parse(e.Host)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec.WithDashboard(e.Dozzle))
	}

	if err := validateUniqueIDs(specs); err != nil {
		return nil, err
	}
	return specs, nil
}
