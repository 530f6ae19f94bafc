package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/dtui/internal/config"
	"github.com/rileyhilliard/dtui/internal/docker"
	"github.com/rileyhilliard/dtui/internal/errors"
	"github.com/rileyhilliard/dtui/internal/host"
	"github.com/rileyhilliard/dtui/internal/ui"
	"github.com/rileyhilliard/dtui/pkg/sshutil"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Init flags
var (
	initDozzle    string
	initForce     bool
	initSkipCheck bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a dtui config file",
	Long: `Create a config file listing the hosts to monitor.

Run without flags in a terminal to pick hosts from ~/.ssh/config or type
engine URLs. Pass -H to skip the prompts. If the config file already exists
the hosts are added to it; --force starts a fresh file instead.

Examples:
  dtui init
  dtui init -H ssh://deploy@web1 --dozzle http://web1:8080
  dtui init -H local -H tcp://10.0.0.5:2375 --config ./config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(cmd.Context(), InitOptions{
			Path:           cfgFile,
			Hosts:          hostFlags,
			Dozzle:         initDozzle,
			Overwrite:      initForce,
			SkipCheck:      initSkipCheck,
			NonInteractive: len(hostFlags) > 0 || !term.IsTerminal(int(os.Stdin.Fd())),
			Out:            cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDozzle, "dozzle", "", "Dozzle log viewer URL for the host (requires a single -H)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().BoolVar(&initSkipCheck, "skip-check", false, "don't test the connection to each engine")
}

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string   // Config file to write; defaults to ~/.config/dtui/config.yaml
	Hosts          []string // Pre-specified host strings
	Dozzle         string   // Dozzle link for the single pre-specified host
	Overwrite      bool     // Replace an existing file instead of adding to it
	SkipCheck      bool     // Don't ping the engines
	NonInteractive bool     // Skip prompts
	Out            io.Writer
}

// initCheckTimeout bounds each engine check.
const initCheckTimeout = 10 * time.Second

// checkEngine connects to and pings the engine behind spec.
var checkEngine = func(ctx context.Context, spec host.Spec) error {
	ctx, cancel := context.WithTimeout(ctx, initCheckTimeout)
	defer cancel()

	c, err := docker.Connect(ctx, spec, initCheckTimeout)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Ping(ctx)
}

// Init creates a config file, or adds hosts to an existing one.
func Init(ctx context.Context, opts InitOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if ctx == nil {
		ctx = context.Background()
	}

	path := opts.Path
	if path == "" {
		path = config.DefaultWritePath()
	}
	path = config.ExpandTilde(path)

	_, statErr := os.Stat(path)
	appending := statErr == nil && !opts.Overwrite

	entries, err := collectHosts(opts)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(opts.Out, "No hosts chosen, nothing written.")
		return nil
	}

	cfg := config.DefaultConfig()
	if appending {
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	cfg.Hosts = mergeHostEntries(cfg.Hosts, entries)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if !opts.SkipCheck {
		if err := checkHosts(ctx, opts, entries); err != nil {
			return err
		}
	}

	if appending {
		for _, e := range entries {
			if err := config.AddHost(path, e); err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					fmt.Sprintf("Couldn't add '%s' to %s", e.Host, path),
					"Check that the file is valid YAML and writable.")
			}
		}
		fmt.Fprintf(opts.Out, "%s Added %d host(s) to %s\n\n", ui.SymbolSuccess, len(entries), path)
	} else {
		if err := config.Write(path, cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Couldn't write config file to %s", path),
				"Check that you have write permissions.")
		}
		fmt.Fprintf(opts.Out, "%s Created %s\n\n", ui.SymbolSuccess, path)
	}

	fmt.Fprintln(opts.Out, "Next steps:")
	fmt.Fprintln(opts.Out, "  dtui hosts   - Check the resolved host list")
	fmt.Fprintln(opts.Out, "  dtui         - Start monitoring")
	return nil
}

// collectHosts gathers host entries from flags or, interactively, from the
// SSH config picker and prompts.
func collectHosts(opts InitOptions) ([]config.HostConfig, error) {
	if opts.NonInteractive {
		return hostsFromFlags(opts.Hosts, opts.Dozzle)
	}

	var entries []config.HostConfig
	for {
		entry, ok, err := promptHost()
		if err != nil {
			return nil, err
		}
		if !ok {
			return entries, nil
		}
		entries = append(entries, entry)

		more := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Add another host?").
				Value(&more),
		))
		if err := form.Run(); err != nil || !more {
			return entries, nil
		}
	}
}

func hostsFromFlags(hosts []string, dozzle string) ([]config.HostConfig, error) {
	if len(hosts) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No hosts given and no terminal to ask in",
			"Pass hosts with -H, e.g. 'dtui init -H ssh://user@server'.")
	}
	if dozzle != "" && len(hosts) != 1 {
		return nil, errors.New(errors.ErrConfig,
			"--dozzle needs exactly one -H",
			"Run 'dtui init' once per host that has a Dozzle link.")
	}

	entries := make([]config.HostConfig, 0, len(hosts))
	for _, raw := range hosts {
		raw = strings.TrimSpace(raw)
		if _, err := host.Parse(raw); err != nil {
			return nil, err
		}
		entries = append(entries, config.HostConfig{Host: raw, Dozzle: dozzle})
	}
	return entries, nil
}

// promptHost asks for one host. ok is false when the user cancels.
func promptHost() (config.HostConfig, bool, error) {
	var raw string

	known, err := sshutil.DiscoverHosts()
	if err != nil {
		known = nil
	}
	picked, cancelled, err := ui.PickHost(known)
	if err != nil {
		return config.HostConfig{}, false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Pass hosts with -H instead.")
	}
	if cancelled {
		return config.HostConfig{}, false, nil
	}
	if picked != nil {
		raw = picked.EngineURL()
	}

	var dozzle string
	fields := []huh.Field{}
	if raw == "" {
		fields = append(fields, huh.NewInput().
			Title("Docker host").
			Description("local, unix:///path, ssh://user@host[:port] or tcp://host:port").
			Placeholder("ssh://deploy@web1").
			Value(&raw).
			Validate(func(s string) error {
				_, err := host.Parse(strings.TrimSpace(s))
				return err
			}))
	}
	fields = append(fields, huh.NewInput().
		Title("Dozzle URL (optional)").
		Description("Log viewer link shown for this host's containers").
		Placeholder("http://web1:8080 (leave empty to skip)").
		Value(&dozzle).
		Validate(validateOptionalURL))

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		if err == huh.ErrUserAborted {
			return config.HostConfig{}, false, nil
		}
		return config.HostConfig{}, false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or pass hosts with -H.")
	}

	return config.HostConfig{
		Host:   strings.TrimSpace(raw),
		Dozzle: strings.TrimSpace(dozzle),
	}, true, nil
}

func validateOptionalURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter a full URL like http://server:8080")
	}
	return nil
}

// checkHosts pings each engine. Interactively a failure can be saved anyway.
func checkHosts(ctx context.Context, opts InitOptions, entries []config.HostConfig) error {
	for _, e := range entries {
		spec, err := host.Parse(e.Host)
		if err != nil {
			return err
		}

		spinner := ui.NewSpinner("Checking Docker on " + spec.ID())
		spinner.SetOutput(opts.Out)
		err = spinner.Run(func() error { return checkEngine(ctx, spec) })
		if err == nil {
			continue
		}

		if opts.NonInteractive {
			return errors.WrapWithCode(err, errors.ErrHost,
				fmt.Sprintf("Couldn't reach Docker on '%s'", e.Host),
				"Fix the connection, or pass --skip-check to save the config anyway.")
		}

		fmt.Fprintf(opts.Out, "\n%s %s\n\n", ui.SymbolFail, errors.Summary(err))
		saveAnyway := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Save config anyway? (You can fix the connection later)").
				Value(&saveAnyway),
		))
		if formErr := form.Run(); formErr != nil || !saveAnyway {
			return errors.WrapWithCode(err, errors.ErrHost,
				fmt.Sprintf("Couldn't reach Docker on '%s'", e.Host),
				"Check that the host is reachable and Docker is running there.")
		}
	}
	return nil
}

// mergeHostEntries appends entries to existing, updating the Dozzle link of
// hosts already present. Mirrors config.AddHost.
func mergeHostEntries(existing, entries []config.HostConfig) []config.HostConfig {
	out := append([]config.HostConfig(nil), existing...)
	for _, e := range entries {
		found := false
		for i := range out {
			if out[i].Host == e.Host {
				if e.Dozzle != "" {
					out[i].Dozzle = e.Dozzle
				}
				found = true
				break
			}
		}
		if !found {
			out = append(out, e)
		}
	}
	return out
}
