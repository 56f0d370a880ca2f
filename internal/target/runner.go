// Package target provides the transports that execute installer commands
// on provisioning hosts.
//
// Three transports are supported, selected by the host's connection kind:
//
//   - local:  os/exec on the machine running venvctl
//   - ssh:    a remote shell over SSH (golang.org/x/crypto/ssh)
//   - docker: exec inside a running container via the Docker Engine API
//
// All transports implement the same Runner interface: run one argv, return
// its combined output. Privilege escalation is applied before the argv
// reaches a transport, by wrapping it with sudo/su/doas (see Become).
package target

import (
	"context"
	"fmt"
	"strings"

	"venvctl/internal/model"
)

// Runner executes commands on a single provisioning host.
//
// Run executes one argv and returns its combined stdout/stderr. A non-nil
// error indicates the command could not be started or exited non-zero;
// the output is returned in both cases so callers can surface installer
// diagnostics.
//
// Close releases any transport resources (SSH connection, Docker client).
// It is safe to call Close multiple times.
type Runner interface {
	Run(ctx context.Context, argv []string) (string, error)
	Close() error
}

// New creates the appropriate Runner for a host based on its connection
// kind. Connection setup failures (SSH dial, Docker daemon detection)
// are returned as CLIErrors with ExitConnectionFailed.
func New(ctx context.Context, host model.Host) (Runner, error) {
	switch host.Connection {
	case model.ConnectionLocal, "":
		return NewLocal(), nil
	case model.ConnectionSSH:
		return NewSSH(host)
	case model.ConnectionDocker:
		return NewDocker(ctx, host)
	default:
		return nil, model.NewCLIError(
			model.ExitConnectionFailed,
			fmt.Sprintf("host %q: unsupported connection kind %q", host.Name, host.Connection),
		)
	}
}

// Become describes the privilege escalation directives from the playbook.
// The zero value means no escalation: Wrap returns the argv unchanged.
type Become struct {
	// Enabled turns escalation on.
	Enabled bool

	// Method is the escalation tool: sudo, su, or doas.
	Method string

	// User is the account the wrapped command runs as.
	User string
}

// Wrap prefixes an argv with the configured escalation command.
//
// Forms produced:
//
//	sudo: sudo -H -n -u <user> -- argv...
//	su:   su -l <user> -c "<argv as shell string>"
//	doas: doas -u <user> argv...
//
// sudo runs with -n (non-interactive) so a missing sudoers entry fails
// immediately instead of hanging on a password prompt, and -H so pip's
// default cache resolution sees the become user's HOME rather than the
// connecting account's. su has no flag-terminated argv form, so the
// command is joined into a single shell-quoted string.
func (b Become) Wrap(argv []string) []string {
	if !b.Enabled {
		return argv
	}

	switch b.Method {
	case "su":
		wrapped := []string{"su", "-l", b.User, "-c", shellJoin(argv)}
		return wrapped
	case "doas":
		wrapped := make([]string, 0, len(argv)+3)
		wrapped = append(wrapped, "doas", "-u", b.User)
		return append(wrapped, argv...)
	default:
		// sudo is the default method; Load guarantees Method is set when
		// Enabled is, but the fallback keeps Wrap total.
		wrapped := make([]string, 0, len(argv)+6)
		wrapped = append(wrapped, "sudo", "-H", "-n", "-u", b.User, "--")
		return append(wrapped, argv...)
	}
}

// shellJoin renders an argv as a single POSIX shell command string with
// each argument single-quoted. Embedded single quotes are closed, escaped,
// and reopened ('\''), which is the only escape single quotes need.
func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
