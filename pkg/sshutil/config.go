package sshutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// HostEntry is a concrete host alias from ~/.ssh/config.
type HostEntry struct {
	Alias        string
	Hostname     string
	User         string
	Port         string
	IdentityFile string
}

// Description summarizes where the alias points, for pickers.
func (h HostEntry) Description() string {
	parts := []string{}

	if h.Hostname != "" && h.Hostname != h.Alias {
		parts = append(parts, h.Hostname)
	}
	if h.User != "" {
		parts = append(parts, "user: "+h.User)
	}
	if h.Port != "" && h.Port != "22" {
		parts = append(parts, "port: "+h.Port)
	}

	if len(parts) == 0 {
		return h.Alias
	}
	return strings.Join(parts, ", ")
}

// EngineURL returns the ssh:// connection string for monitoring the engine
// behind this alias. HostName and Port stay in ssh_config and are resolved
// again at dial time.
func (h HostEntry) EngineURL() string {
	if h.User != "" {
		return "ssh://" + h.User + "@" + h.Alias
	}
	return "ssh://" + h.Alias
}

// DiscoverHosts lists the concrete host aliases in ~/.ssh/config.
func DiscoverHosts() ([]HostEntry, error) {
	return ParseConfigFile(filepath.Join(homeDir(), ".ssh", "config"))
}

// ParseConfigFile parses an ssh_config file and returns its concrete aliases
// (no wildcards), sorted by alias. A missing file yields no entries.
func ParseConfigFile(path string) ([]HostEntry, error) {
	content, _, err := preprocessSSHConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var entries []HostEntry
	seen := make(map[string]bool)

	for _, h := range cfg.Hosts {
		for _, pattern := range h.Patterns {
			alias := pattern.String()
			if strings.ContainsAny(alias, "*?!") || seen[alias] {
				continue
			}
			seen[alias] = true

			e := HostEntry{Alias: alias}
			e.Hostname, _ = cfg.Get(alias, "HostName")
			e.User, _ = cfg.Get(alias, "User")
			e.Port, _ = cfg.Get(alias, "Port")
			if identity, _ := cfg.Get(alias, "IdentityFile"); identity != "" {
				e.IdentityFile = expandPath(identity)
			}
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Alias < entries[j].Alias
	})
	return entries, nil
}
