// Package cli — check.go implements the "venvctl check" command.
//
// The check command is a dry run: it loads and validates the playbook and
// inventory, resolves the target hosts, and prints the exact installer
// invocations apply would execute — without connecting to any host or
// running anything.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"venvctl/internal/engine"
	"venvctl/internal/model"
)

// checkFlags holds the flag values for the check command.
type checkFlags struct {
	inventory string // --inventory: inventory file path
	limit     string // --limit: restrict the check to a single host
}

// NewCheckCommand creates the "check" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCheckCommand() *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check <playbook>",
		Short: "Validate a playbook and show the planned installer invocations",
		Long: `Validate a playbook (and inventory, if given) and print the exact pip
invocations that "venvctl apply" would run on each resolved host. Nothing
is executed and no host is contacted.

Exits non-zero if the playbook or inventory fails validation.

Examples:
  venvctl check install.yml
  venvctl check -i hosts.yml install.yml
  venvctl check --json install.yml`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.inventory, "inventory", "i", "", "Inventory file (default: implicit local inventory)")
	cmd.Flags().StringVar(&flags.limit, "limit", "", "Restrict the check to a single resolved host")

	return cmd
}

// runCheck is the main logic function for the check command.
func runCheck(out io.Writer, playbookPath string, flags *checkFlags) error {
	pb, hosts, err := loadTargets(playbookPath, flags.inventory, flags.limit)
	if err != nil {
		return err
	}

	// The plan is host-independent: every host receives the same two
	// invocations, so it is computed once and printed per host.
	steps := engine.Plan(pb)

	if IsJSONOutput() {
		printPlanJSON(out, playbookPath, hosts, steps)
	} else {
		printPlanText(out, playbookPath, hosts, steps)
	}

	return nil
}

// printPlanJSON outputs the resolved hosts and planned invocations as
// structured JSON.
func printPlanJSON(out io.Writer, playbookPath string, hosts []model.Host, steps []engine.Step) {
	type stepJSON struct {
		Kind string   `json:"kind"`
		Argv []string `json:"argv"`
	}

	type planJSON struct {
		Playbook string       `json:"playbook"`
		Hosts    []model.Host `json:"hosts"`
		Steps    []stepJSON   `json:"steps"`
	}

	plan := planJSON{Playbook: playbookPath, Hosts: hosts}
	for _, s := range steps {
		plan.Steps = append(plan.Steps, stepJSON{Kind: s.Kind.String(), Argv: s.Argv})
	}

	data, _ := json.MarshalIndent(plan, "", "  ")
	fmt.Fprintln(out, string(data))
}

// printPlanText outputs the plan as human-readable text.
func printPlanText(out io.Writer, playbookPath string, hosts []model.Host, steps []engine.Step) {
	fmt.Fprintf(out, "Playbook %s is valid.\n\n", playbookPath)

	fmt.Fprintf(out, "Target hosts (%d):\n", len(hosts))
	for _, h := range hosts {
		fmt.Fprintf(out, "  %s (%s)\n", h.Name, h.Connection)
	}

	fmt.Fprintln(out, "\nPlanned steps, in order:")
	for i, s := range steps {
		fmt.Fprintf(out, "  %d. %-12s  %s\n", i+1, s.Kind, strings.Join(s.Argv, " "))
	}
}
