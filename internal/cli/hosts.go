// Package cli — hosts.go implements the "venvctl hosts" command.
//
// The hosts command resolves a playbook's host selector against the
// inventory and prints the resulting target list, as a text table or a
// JSON array. It is the quickest way to answer "which machines would this
// playbook touch?" before running apply.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"venvctl/internal/model"
)

// hostsFlags holds the flag values for the hosts command.
type hostsFlags struct {
	inventory string // --inventory: inventory file path
}

// NewHostsCommand creates the "hosts" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewHostsCommand() *cobra.Command {
	flags := &hostsFlags{}

	cmd := &cobra.Command{
		Use:   "hosts <playbook>",
		Short: "List the hosts a playbook's selector resolves to",
		Long: `Resolve the playbook's "hosts" selector against the inventory and list
the resulting provisioning targets with their connection settings.

Examples:
  venvctl hosts install.yml
  venvctl hosts -i hosts.yml install.yml
  venvctl hosts -i hosts.yml --json install.yml`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runHosts(cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.inventory, "inventory", "i", "", "Inventory file (default: implicit local inventory)")

	return cmd
}

// runHosts is the main logic function for the hosts command.
func runHosts(out io.Writer, playbookPath string, flags *hostsFlags) error {
	_, hosts, err := loadTargets(playbookPath, flags.inventory, "")
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		printHostsJSON(out, hosts)
	} else {
		printHostsText(out, hosts)
	}

	return nil
}

// printHostsJSON outputs the resolved hosts as a JSON array.
func printHostsJSON(out io.Writer, hosts []model.Host) {
	data, _ := json.MarshalIndent(hosts, "", "  ")
	fmt.Fprintln(out, string(data))
}

// printHostsText outputs the resolved hosts as a simple aligned table.
// The endpoint column shows whichever location field the transport uses:
// the SSH address, the container name, or a dash for local.
func printHostsText(out io.Writer, hosts []model.Host) {
	fmt.Fprintf(out, "%-20s %-10s %s\n", "NAME", "CONN", "ENDPOINT")
	for _, h := range hosts {
		endpoint := "-"
		switch h.Connection {
		case model.ConnectionSSH:
			endpoint = fmt.Sprintf("%s@%s", h.User, h.Addr)
		case model.ConnectionDocker:
			endpoint = h.Container
		}
		fmt.Fprintf(out, "%-20s %-10s %s\n", h.Name, h.Connection, endpoint)
	}
}
