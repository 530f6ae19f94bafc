package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandFlags(t *testing.T) {
	tests := []struct {
		name       string
		persistent bool
		shorthand  string
		typ        string
	}{
		{name: "config", persistent: true, typ: "string"},
		{name: "host", persistent: true, shorthand: "H", typ: "stringArray"},
		{name: "log-file", typ: "string"},
		{name: "metrics-addr", typ: "string"},
		{name: "refresh", typ: "duration"},
		{name: "smoothing", typ: "float64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := rootCmd.Flags()
			if tt.persistent {
				flags = rootCmd.PersistentFlags()
			}
			f := flags.Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.typ, f.Value.Type())
		})
	}
}

func TestRootSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "hosts", "doctor", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
