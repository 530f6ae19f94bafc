package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Write serializes cfg to path, creating parent directories as needed.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# dtui configuration\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// AddHost appends a host entry to an existing config file.
// It preserves the existing YAML structure and comments.
// If an entry with the same host string already exists, only its dozzle link
// is updated (when a new one is given).
func AddHost(configPath string, entry HostConfig) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	hostsNode := findMapValue(docNode, "hosts")
	if hostsNode == nil || (hostsNode.Kind == yaml.ScalarNode && hostsNode.Tag == "!!null") {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if hostsNode == nil {
			docNode.Content = append(docNode.Content, scalar("hosts"), seq)
		} else {
			*hostsNode = *seq
		}
		hostsNode = findMapValue(docNode, "hosts")
	}
	if hostsNode.Kind != yaml.SequenceNode {
		return fmt.Errorf("'hosts' must be a list")
	}

	for _, item := range hostsNode.Content {
		h := findMapValue(item, "host")
		if h == nil || h.Value != entry.Host {
			continue
		}
		if entry.Dozzle == "" {
			return nil
		}
		if d := findMapValue(item, "dozzle"); d != nil {
			d.Value = entry.Dozzle
		} else {
			item.Content = append(item.Content, scalar("dozzle"), scalar(entry.Dozzle))
		}
		return writeNode(configPath, &root)
	}

	item := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	item.Content = append(item.Content, scalar("host"), scalar(entry.Host))
	if entry.Dozzle != "" {
		item.Content = append(item.Content, scalar("dozzle"), scalar(entry.Dozzle))
	}
	hostsNode.Content = append(hostsNode.Content, item)

	return writeNode(configPath, &root)
}

func writeNode(path string, root *yaml.Node) error {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
