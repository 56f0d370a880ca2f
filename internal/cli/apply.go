// Package cli — apply.go implements the "venvctl apply" command.
//
// The apply command is the primary user-facing operation. It loads and
// validates the playbook, resolves the target hosts, and runs the two
// provisioning steps on every host.
//
// Orchestration steps:
//  1. Load and validate the playbook
//  2. Load the inventory (or fall back to the implicit local inventory)
//  3. Resolve the playbook's host selector, applying --limit
//  4. Run the engine: requirements install, then project install, per host
//  5. Output the per-host report (text or JSON) and translate the outcome
//     into the process exit code
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"venvctl/internal/engine"
	"venvctl/internal/inventory"
	"venvctl/internal/model"
	"venvctl/internal/playbook"
)

// timeRounding trims step durations to a readable precision in text output.
const timeRounding = 10 * time.Millisecond

// applyFlags holds the flag values for the apply command.
// These are bound to cobra flags in NewApplyCommand.
type applyFlags struct {
	inventory  string // --inventory: inventory file path
	forks      int    // --forks: number of hosts provisioned concurrently
	limit      string // --limit: restrict the run to a single host
	noEditable bool   // --no-editable: override the playbook's editable mode
}

// NewApplyCommand creates the "apply" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewApplyCommand() *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply <playbook>",
		Short: "Provision virtual environments on the playbook's target hosts",
		Long: `Apply a playbook: install the pinned requirements file into each target
host's virtual environment, then install the project itself with dependency
resolution skipped.

Hosts are provisioned in parallel (bounded by --forks); the two steps on
each host always run in order, and a failed first step skips the second.

Examples:
  venvctl apply install.yml
  venvctl apply -i hosts.yml install.yml
  venvctl apply -i hosts.yml --limit worker1 install.yml
  venvctl apply --no-editable install.yml`,

		// Args validates that exactly one positional argument (the playbook
		// path) is provided.
		Args: cobra.ExactArgs(1),

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.inventory, "inventory", "i", "", "Inventory file (default: implicit local inventory)")
	cmd.Flags().IntVar(&flags.forks, "forks", engine.DefaultForks, "Number of hosts provisioned in parallel")
	cmd.Flags().StringVar(&flags.limit, "limit", "", "Restrict the run to a single resolved host")
	cmd.Flags().BoolVar(&flags.noEditable, "no-editable", false, "Install the project normally even if the playbook enables editable mode")

	return cmd
}

// runApply is the main orchestration function for the apply command.
func runApply(ctx context.Context, out io.Writer, playbookPath string, flags *applyFlags) error {
	// Step 1: Load and validate the playbook.
	pb, hosts, err := loadTargets(playbookPath, flags.inventory, flags.limit)
	if err != nil {
		return err
	}

	// --no-editable overrides the playbook without touching the file,
	// mirroring how an operator would disable development mode for a
	// production host set.
	if flags.noEditable {
		editable := false
		pb.Editable = &editable
		VerboseLog("Editable mode disabled by --no-editable")
	}

	VerboseLog("Provisioning %d host(s) with forks=%d", len(hosts), flags.forks)

	// Step 2: Run the engine.
	eng := engine.New(newLogger(), flags.forks)
	report := eng.Apply(ctx, playbookPath, pb, hosts)

	// Step 3: Output results.
	if IsJSONOutput() {
		printReportJSON(out, report)
	} else {
		printReportText(out, report)
	}

	// Step 4: Translate the run outcome into the process exit code.
	if code := engine.ExitCodeFor(report); code != model.ExitSuccess {
		return model.NewCLIError(code,
			fmt.Sprintf("provisioning failed on host(s): %s", strings.Join(report.FailedHosts(), ", ")))
	}
	return nil
}

// loadTargets performs the load/validate/resolve sequence shared by the
// apply, check, and hosts commands: playbook first, then inventory, then
// the host selector with the optional single-host limit.
func loadTargets(playbookPath, inventoryPath, limit string) (*playbook.Playbook, []model.Host, error) {
	pb, err := playbook.Load(playbookPath)
	if err != nil {
		return nil, nil, err // Load already returns CLIError with ExitPlaybookError
	}
	VerboseLog("Loaded playbook: %s", playbookPath)

	if validationErrs := playbook.Validate(pb); len(validationErrs) > 0 {
		messages := make([]string, len(validationErrs))
		for i, ve := range validationErrs {
			messages[i] = ve.Error()
		}
		return nil, nil, model.NewCLIError(model.ExitPlaybookError, strings.Join(messages, "\n"))
	}

	inv := inventory.Local()
	if inventoryPath != "" {
		inv, err = inventory.Load(inventoryPath)
		if err != nil {
			return nil, nil, err // Load already returns CLIError with ExitInventoryError
		}
		VerboseLog("Loaded inventory: %s", inventoryPath)
	}

	hosts, err := inv.Resolve(pb.Hosts)
	if err != nil {
		return nil, nil, err
	}
	VerboseLog("Selector %q resolved to %d host(s)", pb.Hosts, len(hosts))

	if limit != "" {
		hosts, err = limitHosts(hosts, limit)
		if err != nil {
			return nil, nil, err
		}
	}

	return pb, hosts, nil
}

// limitHosts restricts a resolved host list to the single named host.
// Returns a CLIError with ExitInventoryError when the name matches none
// of the resolved hosts.
func limitHosts(hosts []model.Host, name string) ([]model.Host, error) {
	for _, h := range hosts {
		if h.Name == name {
			return []model.Host{h}, nil
		}
	}
	return nil, model.NewCLIError(
		model.ExitInventoryError,
		fmt.Sprintf("--limit %q matches none of the resolved hosts", name),
	)
}

// printReportJSON outputs the run report as structured JSON.
func printReportJSON(out io.Writer, report *model.RunReport) {
	data, _ := json.MarshalIndent(report, "", "  ")
	fmt.Fprintln(out, string(data))
}

// printReportText outputs the run report as human-readable text: one block
// per host with its step outcomes, followed by a one-line summary.
func printReportText(out io.Writer, report *model.RunReport) {
	for i := range report.Hosts {
		hr := &report.Hosts[i]

		fmt.Fprintf(out, "%s (%s):\n", hr.Host.Name, hr.Host.Connection)
		if hr.Error != "" {
			fmt.Fprintf(out, "  connection failed: %s\n", hr.Error)
		}

		for _, step := range hr.Steps {
			switch step.Status {
			case model.StepOK:
				fmt.Fprintf(out, "  %-12s  ok      (%s)\n", step.Kind, step.Duration.Round(timeRounding))
			case model.StepFailed:
				fmt.Fprintf(out, "  %-12s  failed  (%s)\n", step.Kind, step.Duration.Round(timeRounding))
				// Indent installer output so failures read as part of
				// the step block.
				for _, line := range strings.Split(strings.TrimSpace(step.Output), "\n") {
					if line != "" {
						fmt.Fprintf(out, "      %s\n", line)
					}
				}
			case model.StepSkipped:
				fmt.Fprintf(out, "  %-12s  skipped\n", step.Kind)
			}
		}
	}

	failed := report.FailedHosts()
	fmt.Fprintf(out, "\n%d host(s): %d ok, %d failed\n",
		len(report.Hosts), len(report.Hosts)-len(failed), len(failed))
}
