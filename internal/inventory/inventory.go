// Package inventory resolves a playbook's host selector into concrete
// provisioning targets.
//
// An inventory file maps group names to host entries, each carrying its own
// connection settings (local, ssh, or docker). Like playbooks, inventories
// are YAML by default with a JSONC variant for .json/.jsonc files.
//
// When no inventory file is given, the implicit inventory contains a single
// local host, so `venvctl apply` works out of the box against the machine
// it runs on.
package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"venvctl/internal/model"
)

// LocalSelector is the implicit selector that targets the local machine
// without an inventory file.
const LocalSelector = "local"

// Inventory holds the parsed host groups of one inventory file.
type Inventory struct {
	// Groups maps a group name to its member hosts. Host names must be
	// unique across the entire file, not just within a group, so that a
	// bare host name is an unambiguous selector.
	Groups map[string][]model.Host `json:"groups" yaml:"groups"`
}

// Local returns the implicit inventory used when no inventory file is
// given: a single "localhost" entry in the "local" group.
func Local() *Inventory {
	return &Inventory{
		Groups: map[string][]model.Host{
			LocalSelector: {
				{Name: "localhost", Connection: model.ConnectionLocal},
			},
		},
	}
}

// Load reads an inventory file, decodes it, applies per-host defaults,
// and verifies host entries.
//
// Returns a CLIError with ExitInventoryError if the file does not exist,
// fails to decode, or contains invalid host entries.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitInventoryError,
				fmt.Sprintf("inventory not found: %s", path),
				err,
			)
		}
		return nil, model.WrapCLIError(model.ExitInventoryError, "failed to read inventory", err)
	}

	var inv Inventory
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		clean := jsonc.ToJSON(data)
		if err := json.Unmarshal(clean, &inv); err != nil {
			return nil, model.WrapCLIError(
				model.ExitInventoryError,
				fmt.Sprintf("failed to parse inventory %s", path),
				err,
			)
		}
	default:
		if err := yaml.Unmarshal(data, &inv); err != nil {
			return nil, model.WrapCLIError(
				model.ExitInventoryError,
				fmt.Sprintf("failed to parse inventory %s", path),
				err,
			)
		}
	}

	if err := normalize(&inv); err != nil {
		return nil, err
	}

	return &inv, nil
}

// normalize applies defaults and validates every host entry:
// connection defaults to local, names must be valid and unique, and
// transport-specific fields must be present for their transport.
func normalize(inv *Inventory) error {
	seen := make(map[string]string) // host name → group that declared it

	for group, hosts := range inv.Groups {
		for i := range hosts {
			h := &inv.Groups[group][i]

			if err := model.ValidateHostName(h.Name); err != nil {
				return model.WrapCLIError(
					model.ExitInventoryError,
					fmt.Sprintf("invalid host in group %q", group),
					err,
				)
			}

			if other, dup := seen[h.Name]; dup {
				return model.NewCLIError(
					model.ExitInventoryError,
					fmt.Sprintf("host %q declared in both group %q and group %q: host names must be unique", h.Name, other, group),
				)
			}
			seen[h.Name] = group

			if h.Connection == "" {
				h.Connection = model.ConnectionLocal
			}
			if !h.Connection.IsValid() {
				return model.NewCLIError(
					model.ExitInventoryError,
					fmt.Sprintf("host %q: invalid connection kind %q (valid: local, ssh, docker)", h.Name, h.Connection),
				)
			}

			switch h.Connection {
			case model.ConnectionSSH:
				if h.Addr == "" {
					return model.NewCLIError(
						model.ExitInventoryError,
						fmt.Sprintf("host %q: addr is required for ssh connections", h.Name),
					)
				}
				if h.User == "" {
					return model.NewCLIError(
						model.ExitInventoryError,
						fmt.Sprintf("host %q: user is required for ssh connections", h.Name),
					)
				}
			case model.ConnectionDocker:
				if h.Container == "" {
					return model.NewCLIError(
						model.ExitInventoryError,
						fmt.Sprintf("host %q: container is required for docker connections", h.Name),
					)
				}
			}
		}
	}

	return nil
}

// Resolve maps a playbook host selector to the list of target hosts.
//
// Resolution order:
//  1. A group name matches all hosts in that group.
//  2. A bare host name matches that single host in any group.
//
// An empty selector resolves like "local". Returns a CLIError with
// ExitInventoryError if the selector matches nothing.
func (inv *Inventory) Resolve(selector string) ([]model.Host, error) {
	if selector == "" {
		selector = LocalSelector
	}

	if hosts, ok := inv.Groups[selector]; ok {
		if len(hosts) == 0 {
			return nil, model.NewCLIError(
				model.ExitInventoryError,
				fmt.Sprintf("group %q is empty", selector),
			)
		}
		return hosts, nil
	}

	// Fall back to single-host lookup across all groups.
	for _, hosts := range inv.Groups {
		for _, h := range hosts {
			if h.Name == selector {
				return []model.Host{h}, nil
			}
		}
	}

	return nil, model.NewCLIError(
		model.ExitInventoryError,
		fmt.Sprintf("selector %q matches no group or host in the inventory", selector),
	)
}
