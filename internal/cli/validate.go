package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tether/internal/harness"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate conformance scenario files",
		Long: `Strict-load scenario YAML files and report structural problems:
unknown fields, unknown operations, malformed expect clauses.

Example:
  tether validate testdata/scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
}

type validateReport struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	var reports []validateReport
	invalid := 0

	for _, path := range paths {
		report := validateReport{Path: path, Valid: true}
		if _, err := harness.LoadScenario(path); err != nil {
			report.Valid = false
			report.Error = err.Error()
			invalid++
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
			if r.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "ok\t%s\n", r.Path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "invalid\t%s\n\t%s\n", r.Path, r.Error)
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d scenario files invalid", invalid, len(paths))
	}
	return nil
}
