// local.go implements the local transport: installer commands run directly
// on the machine executing venvctl via os/exec.
package target

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Local executes commands on the local machine. It is stateless; the
// struct exists as a receiver to satisfy the Runner interface and to
// allow future extension (e.g., a configurable working directory).
type Local struct{}

// NewLocal creates a local Runner.
func NewLocal() *Local {
	return &Local{}
}

// Run executes the argv as a child process and returns its combined
// stdout/stderr. The context cancels the process if the run is aborted.
//
// The argv is executed directly, not through a shell, so installer paths
// and arguments are never subject to shell interpretation. Escalation
// wrappers (sudo/doas) arrive here already prefixed to the argv.
func (l *Local) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}

	// #nosec G204 — argv is constructed internally from playbook fields,
	// not concatenated from user input.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	// CombinedOutput captures stdout and stderr interleaved, which is how
	// pip reports progress and errors together.
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("%s failed: %w", strings.Join(argv, " "), err)
	}

	return string(output), nil
}

// Close is a no-op for the local transport.
func (l *Local) Close() error {
	return nil
}
