// Package playbook handles loading and validation of venvctl playbook files.
//
// A playbook is a small declarative document describing how to provision a
// Python virtual environment: which hosts to target, how to escalate
// privileges, where the project and its pinned requirements live, and which
// pip executable and download cache to use.
//
// Playbooks are written in YAML. Files with a .json or .jsonc extension are
// parsed as JSONC (JSON with Comments) via github.com/tidwall/jsonc, so
// hand-maintained JSON playbooks can carry comments and trailing commas.
package playbook

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

// Default values applied by Load when the corresponding field is absent.
const (
	// DefaultHosts targets the local machine when no selector is given.
	DefaultHosts = "local"

	// DefaultBecomeMethod is used when become is enabled without an
	// explicit method.
	DefaultBecomeMethod = "sudo"
)

// Playbook is the parsed declarative document. Field names mirror the wire
// format consumed from the playbook file; see the package example below.
//
//	hosts: aiida
//	become: true
//	become_method: sudo
//	become_user: aiida
//	project_dir: /home/aiida/aiida-core
//	requirements: requirements/requirements-py-3.9.txt
//	venv_bin: /opt/venv/bin
//	pip_cache: /home/aiida/.cache/pip
//	editable: true
type Playbook struct {
	// Hosts is the target selector: an inventory group name, a single
	// host name, or "local" for the implicit local-only inventory.
	Hosts string `json:"hosts" yaml:"hosts"`

	// Become enables privilege escalation for every installer invocation.
	Become bool `json:"become" yaml:"become"`

	// BecomeMethod selects the escalation tool: sudo, su, or doas.
	// Defaults to sudo when Become is set without a method.
	BecomeMethod string `json:"become_method,omitempty" yaml:"become_method"`

	// BecomeUser is the account the installer runs as when Become is set.
	BecomeUser string `json:"become_user,omitempty" yaml:"become_user"`

	// ProjectDir is the absolute path to the project source directory on
	// the target host. It must contain a valid package descriptor
	// (pyproject.toml or setup.py).
	ProjectDir string `json:"project_dir" yaml:"project_dir"`

	// Requirements is the path to the pinned requirements file. Relative
	// paths are resolved against ProjectDir; absolute paths are used
	// verbatim.
	Requirements string `json:"requirements" yaml:"requirements"`

	// VenvBin is the bin directory of the target virtual environment.
	// The pip executable is expected at <VenvBin>/pip.
	VenvBin string `json:"venv_bin" yaml:"venv_bin"`

	// PipCache is the pip download cache directory, passed through to the
	// installer as --cache-dir. pip creates it if absent.
	PipCache string `json:"pip_cache" yaml:"pip_cache"`

	// Editable toggles editable (development) mode for the project install
	// step. A nil pointer means the field was absent and defaults to true;
	// use IsEditable to read the effective value.
	Editable *bool `json:"editable,omitempty" yaml:"editable"`
}

// IsEditable returns the effective editable-install setting.
// An unset field defaults to true.
func (p *Playbook) IsEditable() bool {
	if p.Editable == nil {
		return true
	}
	return *p.Editable
}

// PipPath returns the absolute path to the pip executable inside the
// target virtual environment.
func (p *Playbook) PipPath() string {
	return filepath.Join(p.VenvBin, "pip")
}

// RequirementsPath returns the absolute path to the requirements file.
// Relative requirements paths are interpreted relative to the project
// directory, matching how a checkout lays out its pinned files.
func (p *Playbook) RequirementsPath() string {
	if filepath.IsAbs(p.Requirements) {
		return p.Requirements
	}
	return filepath.Join(p.ProjectDir, p.Requirements)
}

// Load reads a playbook file, decodes it, applies defaults, and expands
// environment variables and "~" in all path fields.
//
// The format is chosen by file extension: .json and .jsonc are parsed as
// JSONC (comments stripped first), everything else as YAML.
//
// Returns a CLIError with ExitPlaybookError if the file does not exist
// or fails to decode.
func Load(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitPlaybookError,
				fmt.Sprintf("playbook not found: %s", path),
				err,
			)
		}
		return nil, model.WrapCLIError(model.ExitPlaybookError, "failed to read playbook", err)
	}

	var pb Playbook
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// Strip JSONC comments (// and /* */) and trailing commas before
		// parsing with the standard library.
		clean := jsonc.ToJSON(data)
		if err := json.Unmarshal(clean, &pb); err != nil {
			return nil, model.WrapCLIError(
				model.ExitPlaybookError,
				fmt.Sprintf("failed to parse playbook %s", path),
				err,
			)
		}
	default:
		// yaml.Unmarshal silently ignores fields not defined in the
		// struct, which lets playbooks carry extra annotation keys.
		if err := yaml.Unmarshal(data, &pb); err != nil {
			return nil, model.WrapCLIError(
				model.ExitPlaybookError,
				fmt.Sprintf("failed to parse playbook %s", path),
				err,
			)
		}
	}

	applyDefaults(&pb)
	expandPaths(&pb)

	return &pb, nil
}

// applyDefaults fills in the documented default values for absent fields.
// Editable stays a nil pointer here — IsEditable resolves it — so that
// Validate can still distinguish "unset" from "explicitly true".
func applyDefaults(pb *Playbook) {
	if pb.Hosts == "" {
		pb.Hosts = DefaultHosts
	}
	if pb.Become && pb.BecomeMethod == "" {
		pb.BecomeMethod = DefaultBecomeMethod
	}
}

// expandPaths expands "$VAR" references and a leading "~" in every path
// field. Expansion happens at load time so that every later consumer
// (validation, command construction, reporting) sees final paths.
func expandPaths(pb *Playbook) {
	pb.ProjectDir = expandPath(pb.ProjectDir)
	pb.Requirements = expandPath(pb.Requirements)
	pb.VenvBin = expandPath(pb.VenvBin)
	pb.PipCache = expandPath(pb.PipCache)
}

// expandPath expands environment variables and a leading "~/" in a single
// path. A bare "~" is also handled. If the home directory cannot be
// determined, the path is returned with only variable expansion applied.
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
