package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dtui/internal/config"
	"github.com/spf13/cobra"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Print the hosts dtui would monitor",
	Long: `Print the resolved host list: the -H flags if any, otherwise the hosts in
the config file, otherwise the local engine. The first column is the host
identifier shown in the dashboard's HOST column.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return hostsCommand(cmd.OutOrStdout(), cfgFile, hostFlags)
	},
}

func init() {
	rootCmd.AddCommand(hostsCmd)
}

func hostsCommand(w io.Writer, configPath string, cliHosts []string) error {
	cfg, path, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	specs, err := config.ResolveHosts(cfg, cliHosts)
	if err != nil {
		return err
	}

	nameStyle := lipgloss.NewStyle().Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	source := "default"
	switch {
	case len(cliHosts) > 0:
		source = "--host"
	case len(cfg.Hosts) > 0:
		source = path
	}
	fmt.Fprintln(w, dimStyle.Render("hosts from "+source))

	width := 0
	for _, s := range specs {
		width = max(width, len(s.ID()))
	}
	idStyle := nameStyle.Width(width + 2)

	for _, s := range specs {
		line := idStyle.Render(s.ID()) + s.Address
		if s.Dashboard != "" {
			line += dimStyle.Render("  logs: " + s.Dashboard)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
