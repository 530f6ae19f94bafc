package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/dtui/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file name looked up in the working directory.
	ConfigFileName = "config.yaml"
	// GlobalConfigDir is the per-user config directory, relative to home.
	GlobalConfigDir = ".config/dtui"
	// DotFileName is the legacy per-user dotfile, relative to home.
	DotFileName = ".dtui.yaml"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'dtui init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// SearchPaths returns the candidate config locations, in lookup order:
//  1. ./config.yaml, ./config.yml
//  2. ~/.config/dtui/config.yaml, ~/.config/dtui/config.yml
//  3. ~/.dtui.yaml, ~/.dtui.yml
func SearchPaths() []string {
	paths := []string{}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths,
			filepath.Join(cwd, ConfigFileName),
			filepath.Join(cwd, ymlVariant(ConfigFileName)))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths,
			filepath.Join(home, GlobalConfigDir, ConfigFileName),
			filepath.Join(home, GlobalConfigDir, ymlVariant(ConfigFileName)),
			filepath.Join(home, DotFileName),
			filepath.Join(home, ymlVariant(DotFileName)))
	}

	return paths
}

// Find locates the config file. An explicit path (from --config) must exist;
// otherwise the first existing entry of SearchPaths wins.
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the found path, or returns defaults if no
// file exists. The returned path is empty when defaults were used.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		return DefaultConfig(), "", nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// DefaultWritePath is where 'dtui init' writes when no path is given.
func DefaultWritePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ConfigFileName
	}
	return filepath.Join(home, GlobalConfigDir, ConfigFileName)
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	setDefaults(v)

	// viper's default decode hooks turn "500ms" into a time.Duration
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	for i := range cfg.Hosts {
		cfg.Hosts[i].Host = strings.TrimSpace(cfg.Hosts[i].Host)
		cfg.Hosts[i].Dozzle = strings.TrimSpace(cfg.Hosts[i].Dozzle)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", CurrentConfigVersion)
	v.SetDefault("refresh_interval", DefaultRefreshInterval.String())
	v.SetDefault("connect_timeout", DefaultConnectTimeout.String())
}

func ymlVariant(name string) string {
	return strings.TrimSuffix(name, ".yaml") + ".yml"
}

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
