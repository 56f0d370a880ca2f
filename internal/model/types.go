// Package model defines the domain types for the venvctl CLI.
//
// All entities in this package are plain data structures passed between
// the playbook, inventory, target, and engine layers. Nothing here is
// persisted: a run report exists only for the lifetime of a single
// `venvctl apply` invocation.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ConnectionKind identifies the transport used to reach a target host.
type ConnectionKind string

const (
	// ConnectionLocal executes installer commands directly on this machine
	// via os/exec. This is the default when no inventory is provided.
	ConnectionLocal ConnectionKind = "local"

	// ConnectionSSH executes installer commands on a remote machine over SSH.
	ConnectionSSH ConnectionKind = "ssh"

	// ConnectionDocker executes installer commands inside a running Docker
	// container via the Docker Engine API.
	ConnectionDocker ConnectionKind = "docker"
)

// String returns the string representation of ConnectionKind.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (c ConnectionKind) String() string {
	return string(c)
}

// IsValid checks whether the ConnectionKind value is one of the
// predefined valid transports.
func (c ConnectionKind) IsValid() bool {
	switch c {
	case ConnectionLocal, ConnectionSSH, ConnectionDocker:
		return true
	default:
		return false
	}
}

// ParseConnectionKind converts a string to a ConnectionKind.
// Returns an error if the string does not match any valid transport.
func ParseConnectionKind(s string) (ConnectionKind, error) {
	kind := ConnectionKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid connection kind: %q (valid: local, ssh, docker)", s)
	}
	return kind, nil
}

// Host describes a single provisioning target resolved from the inventory.
// Each host is fully independent: its virtual environment is the only
// shared resource, and no state crosses host boundaries during a run.
type Host struct {
	// Name is the unique identifier for this host within the inventory.
	// Must contain only alphanumeric characters, dots, and hyphens.
	Name string `json:"name" yaml:"name"`

	// Connection selects the transport used to reach this host.
	// Defaults to "local" when unset.
	Connection ConnectionKind `json:"connection" yaml:"connection"`

	// Addr is the "host:port" address for SSH connections.
	// Ignored for local and docker connections.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// User is the login account for SSH connections.
	User string `json:"user,omitempty" yaml:"user,omitempty"`

	// KeyFile is the path to the private key used for SSH authentication.
	KeyFile string `json:"keyFile,omitempty" yaml:"key_file,omitempty"`

	// Container is the name or ID of the target container for docker
	// connections. The container must already be running.
	Container string `json:"container,omitempty" yaml:"container,omitempty"`
}

// hostNameRegex validates host names: alphanumeric plus dots and hyphens,
// must start and end with alphanumeric.
var hostNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateHostName checks if the given name is a valid inventory host name.
func ValidateHostName(name string) error {
	if name == "" {
		return fmt.Errorf("host name must not be empty")
	}
	if !hostNameRegex.MatchString(name) {
		return fmt.Errorf("invalid host name %q: must contain only alphanumeric characters, dots, and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// StepKind identifies one of the two provisioning steps.
// Step order is fixed: requirements installation always precedes
// project installation, and the project step never re-resolves
// dependencies already satisfied by the requirements step.
type StepKind string

const (
	// StepRequirements installs the pinned requirements file into the
	// target virtual environment through the pip download cache.
	StepRequirements StepKind = "requirements"

	// StepProject installs the project source itself into the same
	// environment with dependency resolution skipped (--no-deps),
	// optionally in editable mode.
	StepProject StepKind = "project"
)

// String returns the string representation of StepKind.
func (k StepKind) String() string {
	return string(k)
}

// StepStatus represents the outcome of a single provisioning step.
type StepStatus string

const (
	// StepOK indicates the step completed successfully.
	StepOK StepStatus = "ok"

	// StepFailed indicates the step ran and returned an error.
	// A failed step aborts all remaining steps on the same host.
	StepFailed StepStatus = "failed"

	// StepSkipped indicates the step never ran because an earlier
	// step on the same host failed.
	StepSkipped StepStatus = "skipped"
)

// String returns the string representation of StepStatus.
func (s StepStatus) String() string {
	return string(s)
}

// StepResult records the outcome of one installer invocation on one host.
type StepResult struct {
	// Kind identifies which provisioning step this result belongs to.
	Kind StepKind `json:"kind"`

	// Status is the step outcome: ok, failed, or skipped.
	Status StepStatus `json:"status"`

	// Argv is the exact installer command line that was (or would have
	// been) executed, after privilege-escalation wrapping.
	Argv []string `json:"argv,omitempty"`

	// Output is the combined stdout/stderr of the installer invocation.
	// Empty for skipped steps.
	Output string `json:"output,omitempty"`

	// Duration is the wall-clock time the step took. Zero for skipped steps.
	Duration time.Duration `json:"duration"`

	// Err holds the failure, if any. It is excluded from JSON because
	// error values do not marshal; Error carries the message instead.
	Err error `json:"-"`

	// Error is the human-readable failure message for JSON output.
	Error string `json:"error,omitempty"`
}

// HostReport aggregates the step results for a single host.
type HostReport struct {
	// Host is the target this report describes.
	Host Host `json:"host"`

	// Steps holds the results in execution order: requirements first,
	// then project.
	Steps []StepResult `json:"steps"`

	// Error holds a host-level failure that prevented any step from
	// running, such as an SSH dial or Docker daemon error. All steps
	// are skipped when this is set.
	Error string `json:"error,omitempty"`
}

// Failed reports whether this host failed, either at connection time or
// in any individual step.
func (r *HostReport) Failed() bool {
	if r.Error != "" {
		return true
	}
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	return false
}

// RunReport aggregates all host reports for one apply run.
type RunReport struct {
	// Playbook is the path of the playbook that was applied.
	Playbook string `json:"playbook"`

	// Hosts holds one report per target host, in inventory order.
	Hosts []HostReport `json:"hosts"`

	// StartedAt is the timestamp when the run began.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is the timestamp when the last host completed.
	FinishedAt time.Time `json:"finishedAt"`
}

// FailedHosts returns the names of all hosts with at least one failed step.
func (r *RunReport) FailedHosts() []string {
	var failed []string
	for i := range r.Hosts {
		if r.Hosts[i].Failed() {
			failed = append(failed, r.Hosts[i].Host.Name)
		}
	}
	return failed
}

// ExitCode defines standard CLI exit codes. These codes allow scripts
// and CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitPlaybookError indicates the playbook file was not found or
	// failed to parse or validate.
	ExitPlaybookError ExitCode = 2

	// ExitInventoryError indicates the inventory file was not found,
	// failed to parse, or the host selector matched nothing.
	ExitInventoryError ExitCode = 3

	// ExitConnectionFailed indicates a target host could not be reached
	// (SSH dial failure, Docker daemon not running, container missing).
	ExitConnectionFailed ExitCode = 4

	// ExitEscalationFailed indicates privilege escalation was rejected
	// on a target host.
	ExitEscalationFailed ExitCode = 5

	// ExitInstallFailed indicates an installer step ran and failed on
	// at least one host.
	ExitInstallFailed ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
