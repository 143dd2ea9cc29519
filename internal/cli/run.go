package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tether/internal/harness"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Execute conformance scenarios",
		Long: `Execute scenario flows against real safe references and report
pass/fail per scenario. Fatal contract violations declared in expect
clauses count as passing steps; undeclared ones fail the scenario.

Example:
  tether run testdata/scenarios/*.yaml
  tether run --format json testdata/scenarios/move_invalidates_source.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(rootOpts, args, cmd)
		},
	}
}

type runReport struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Pass     bool     `json:"pass"`
	Events   int      `json:"events"`
	Errors   []string `json:"errors,omitempty"`
}

func runScenarios(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	var reports []runReport
	failed := 0

	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}

		slog.Debug("running scenario", "path", path, "name", scenario.Name)
		result, err := harness.Run(scenario)
		if err != nil {
			return fmt.Errorf("run %s: %w", path, err)
		}

		report := runReport{
			Scenario: scenario.Name,
			Path:     path,
			Pass:     result.Pass,
			Events:   len(result.Trace),
		}
		for _, e := range result.Errors {
			report.Errors = append(report.Errors, e.Error())
		}
		if !result.Pass {
			failed++
		}
		reports = append(reports, report)
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			if r.Pass {
				fmt.Fprintf(cmd.OutOrStdout(), "PASS\t%s\t(%d events)\n", r.Scenario, r.Events)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL\t%s\n", r.Scenario)
				for _, e := range r.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "\t%s\n", e)
				}
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(paths))
	}
	return nil
}
