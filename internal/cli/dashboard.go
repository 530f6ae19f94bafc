package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/dtui/internal/config"
	"github.com/rileyhilliard/dtui/internal/dashboard"
	"github.com/rileyhilliard/dtui/internal/docker"
	"github.com/rileyhilliard/dtui/internal/errors"
	"github.com/rileyhilliard/dtui/internal/host"
	"github.com/rileyhilliard/dtui/internal/logger"
	"github.com/rileyhilliard/dtui/internal/monitor"
	"github.com/rileyhilliard/dtui/internal/telemetry"
	"github.com/rileyhilliard/dtui/pkg/sshutil"
	"golang.org/x/sync/errgroup"
)

// DashboardOptions holds the root command's flags.
type DashboardOptions struct {
	ConfigPath  string
	Hosts       []string
	LogFile     string
	MetricsAddr string
	Refresh     time.Duration
	Smoothing   float64
	// SmoothingSet distinguishes an explicit --smoothing 0 from the default.
	SmoothingSet bool
}

// loadSettings loads the config, applies flag overrides on top and resolves
// the host list.
func loadSettings(opts DashboardOptions) (*config.Config, []host.Spec, error) {
	cfg, _, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	applyOverrides(cfg, opts)

	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}

	specs, err := config.ResolveHosts(cfg, opts.Hosts)
	if err != nil {
		return nil, nil, err
	}
	return cfg, specs, nil
}

func applyOverrides(cfg *config.Config, opts DashboardOptions) {
	if opts.Refresh != 0 {
		cfg.RefreshInterval = opts.Refresh
	}
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}
	if opts.SmoothingSet {
		cfg.Smoothing = opts.Smoothing
	}
}

// setupLogging points the standard logger at path, or discards it: the
// dashboard owns the terminal.
func setupLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}

	f, err := tea.LogToFile(config.ExpandTilde(path), "dtui")
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open log file "+path,
			"Check the directory exists and is writable.")
	}
	return func() { f.Close() }, nil
}

// dockerConnector adapts docker.Connect to the engine's Connector.
func dockerConnector(timeout time.Duration) monitor.Connector {
	return func(ctx context.Context, spec host.Spec) (monitor.Client, error) {
		c, err := docker.Connect(ctx, spec, timeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// dashboardCommand runs the TUI, the engine and, when configured, the metrics
// endpoint until the user quits or ctx is cancelled.
func dashboardCommand(ctx context.Context, opts DashboardOptions) error {
	cfg, specs, err := loadSettings(opts)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(opts.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	lg := logger.NewEnvLogger("dtui")
	sshutil.SetLogger(logger.WithPrefix(lg, "[ssh]"))
	defer sshutil.CloseAgent()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var engine *monitor.Engine
	submit := func(ev monitor.Event) {
		engine.Submit(ctx, ev)
	}

	program := tea.NewProgram(dashboard.NewModel(submit), tea.WithAltScreen())

	displays := []monitor.Display{dashboard.NewDisplay(program)}
	var exporter *telemetry.Exporter
	if cfg.MetricsAddr != "" {
		exporter = telemetry.New()
		displays = append(displays, exporter)
	}

	engine = monitor.New(monitor.Options{
		Hosts:           specs,
		Connect:         dockerConnector(cfg.ConnectTimeout),
		Displays:        displays,
		RefreshInterval: cfg.RefreshInterval,
		ConnectTimeout:  cfg.ConnectTimeout,
		Smoothing:       cfg.Smoothing,
		Logger:          lg,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Leaving the dashboard for any reason stops the engine.
		defer cancel()
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return engine.Run(gctx)
	})

	if exporter != nil {
		g.Go(func() error {
			if err := exporter.Serve(gctx, cfg.MetricsAddr, lg); err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					"Couldn't serve metrics on "+cfg.MetricsAddr,
					"Pick a free address with --metrics-addr, or leave it out.")
			}
			return nil
		})
	}

	return g.Wait()
}
