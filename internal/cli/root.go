package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile   string
	hostFlags []string
)

// Dashboard flags
var (
	logFileFlag     string
	metricsAddrFlag string
	refreshFlag     time.Duration
	smoothingFlag   float64
)

var rootCmd = &cobra.Command{
	Use:   "dtui",
	Short: "Live resource usage of containers across Docker hosts",
	Long: `dtui shows the running containers of one or more Docker engines in a
single live table, with CPU and memory usage per container.

Hosts come from -H flags, or from the 'hosts' list in the config file, or
default to the local engine.

Examples:
  dtui
  dtui -H local -H ssh://deploy@web1
  dtui -H tcp://10.0.0.5:2375 --refresh 1s
  dtui --metrics-addr :9184 --log-file ~/dtui.log`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.Context(), DashboardOptions{
			ConfigPath:   cfgFile,
			Hosts:        hostFlags,
			LogFile:      logFileFlag,
			MetricsAddr:  metricsAddrFlag,
			Refresh:      refreshFlag,
			Smoothing:    smoothingFlag,
			SmoothingSet: cmd.Flags().Changed("smoothing"),
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml, then ~/.config/dtui/config.yaml)")
	pf.StringArrayVarP(&hostFlags, "host", "H", nil, "host to monitor: local, unix:///path, ssh://user@host[:port] or tcp://host:port (repeatable)")

	f := rootCmd.Flags()
	f.StringVar(&logFileFlag, "log-file", "", "write logs to this file (logs are discarded otherwise)")
	f.StringVar(&metricsAddrFlag, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9184")
	f.DurationVar(&refreshFlag, "refresh", 0, "dashboard refresh interval (default 500ms)")
	f.Float64Var(&smoothingFlag, "smoothing", 0, "smoothing factor for CPU and memory readings, 0 to 1 (0 shows raw readings)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
