package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dtui/internal/config"
	"github.com/rileyhilliard/dtui/internal/docker"
	"github.com/rileyhilliard/dtui/internal/doctor"
	"github.com/rileyhilliard/dtui/internal/errors"
	"github.com/rileyhilliard/dtui/internal/host"
	"github.com/rileyhilliard/dtui/internal/ui"
	"github.com/spf13/cobra"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the config and every host's Docker engine",
	Long: `Run diagnostic checks: whether the config file loads and validates,
whether an SSH agent is available for ssh:// hosts, and whether each host's
Docker engine answers.

Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), cmd.OutOrStdout(), cfgFile, hostFlags, doctorJSON, nil)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

// engineConnector adapts docker.Connect to the doctor's Connector.
func engineConnector(ctx context.Context, spec host.Spec) (doctor.EngineClient, error) {
	c, err := docker.Connect(ctx, spec, doctor.DefaultEngineTimeout)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// doctorHosts resolves the hosts to check. A broken config still yields the
// -H hosts, or the local engine, so the engines get checked regardless.
func doctorHosts(configPath string, cliHosts []string) []host.Spec {
	cfg, _, err := config.LoadOrDefault(configPath)
	if err != nil || config.Validate(cfg) != nil {
		cfg = config.DefaultConfig()
	}
	specs, err := config.ResolveHosts(cfg, cliHosts)
	if err != nil {
		return []host.Spec{host.MustParse(host.LocalID)}
	}
	return specs
}

// doctorCommand runs every check and reports. connect may be nil to use the
// Docker client.
func doctorCommand(ctx context.Context, w io.Writer, configPath string, cliHosts []string, asJSON bool, connect doctor.Connector) error {
	if connect == nil {
		connect = engineConnector
	}

	specs := doctorHosts(configPath, cliHosts)
	checks := doctor.NewChecks(configPath, specs, connect, doctor.DefaultEngineTimeout)
	results := doctor.RunAllParallel(ctx, checks)

	var err error
	if asJSON {
		err = outputDoctorJSON(w, checks, results)
	} else {
		outputDoctorText(w, checks, results)
	}
	if err != nil {
		return err
	}

	if doctor.HasFailures(results) {
		failed := doctor.CountByStatus(results)[doctor.StatusFail]
		return errors.New(errors.ErrHost,
			fmt.Sprintf("%d check%s failed", failed, pluralSuffix(failed)),
			"See the report above for what to fix.")
	}
	return nil
}

// groupResults groups result indices by category, in report order.
func groupResults(checks []doctor.Check) map[string][]int {
	grouped := make(map[string][]int)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], i)
	}
	return grouped
}

func outputDoctorJSON(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	grouped := groupResults(checks)

	output := DoctorOutput{Categories: []CategoryOutput{}}
	for _, cat := range doctor.CategoryOrder {
		indices, ok := grouped[cat]
		if !ok {
			continue
		}
		out := CategoryOutput{Name: cat}
		for _, idx := range indices {
			out.Results = append(out.Results, results[idx])
		}
		output.Categories = append(output.Categories, out)
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		AllClear: !doctor.HasIssues(results),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("dtui Diagnostic Report"))
	fmt.Fprintln(w)

	grouped := groupResults(checks)
	for _, category := range doctor.CategoryOrder {
		indices, ok := grouped[category]
		if !ok {
			continue
		}

		fmt.Fprintln(w, headerStyle.Render(category))
		for _, idx := range indices {
			renderCheckResult(w, results[idx])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	if doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle.Render(ui.SymbolFail), doctor.Summary(results))
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.SuccessStyle.Render(ui.SymbolSuccess), doctor.Summary(results))
	}
	fmt.Fprintln(w)
}

// renderCheckResult renders a single check result.
func renderCheckResult(w io.Writer, result doctor.CheckResult) {
	symbol, style := ui.SymbolComplete, ui.SuccessStyle
	switch result.Status {
	case doctor.StatusWarn:
		symbol, style = ui.SymbolWarning, ui.WarningStyle
	case doctor.StatusFail:
		symbol, style = ui.SymbolFail, ui.ErrorStyle
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", ui.MutedStyle.Render(line))
		}
	}
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
