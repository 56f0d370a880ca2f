// ssh.go implements the SSH transport: installer commands run on a remote
// machine over an SSH connection established once per host and reused for
// both provisioning steps.
package target

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"venvctl/internal/model"
)

// SSH executes commands on a remote host over a single SSH connection.
// Each Run opens a fresh session on the shared connection, since an SSH
// session can only execute one command.
type SSH struct {
	host   model.Host
	client *ssh.Client
}

// NewSSH dials the host and authenticates with its configured private key.
//
// Host key verification uses ~/.ssh/known_hosts when present. When the
// file is missing (fresh CI runners, containers), verification is skipped
// — the same trade-off ansible makes with host_key_checking disabled.
//
// Returns a CLIError with ExitConnectionFailed on any setup failure.
func NewSSH(host model.Host) (*SSH, error) {
	if host.KeyFile == "" {
		return nil, model.NewCLIError(
			model.ExitConnectionFailed,
			fmt.Sprintf("host %q: key_file is required for ssh connections", host.Name),
		)
	}

	keyData, err := os.ReadFile(host.KeyFile)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConnectionFailed,
			fmt.Sprintf("host %q: failed to read private key %s", host.Name, host.KeyFile),
			err,
		)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConnectionFailed,
			fmt.Sprintf("host %q: failed to parse private key %s", host.Name, host.KeyFile),
			err,
		)
	}

	config := &ssh.ClientConfig{
		User:            host.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback(),
	}

	client, err := ssh.Dial("tcp", host.Addr, config)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConnectionFailed,
			fmt.Sprintf("host %q: ssh dial %s failed", host.Name, host.Addr),
			err,
		)
	}

	return &SSH{host: host, client: client}, nil
}

// hostKeyCallback returns a known_hosts-backed verifier when the user has
// a known_hosts file, and an accept-all verifier otherwise.
func hostKeyCallback() ssh.HostKeyCallback {
	home, err := os.UserHomeDir()
	if err == nil {
		knownHostsPath := filepath.Join(home, ".ssh", "known_hosts")
		if _, statErr := os.Stat(knownHostsPath); statErr == nil {
			if cb, khErr := knownhosts.New(knownHostsPath); khErr == nil {
				return cb
			}
		}
	}
	return ssh.InsecureIgnoreHostKey()
}

// Run executes the argv on the remote host and returns its combined
// output. The argv is rendered as a single shell-quoted command line
// because SSH transports commands as strings, not argument vectors.
//
// SSH sessions have no native context support, so cancellation is
// implemented by closing the session when the context is done, which
// tears down the remote command's stdio and terminates it.
func (s *SSH) Run(ctx context.Context, argv []string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitConnectionFailed,
			fmt.Sprintf("host %q: failed to open ssh session", s.host.Name),
			err,
		)
	}
	defer func() { _ = session.Close() }()

	// Watch for context cancellation while the remote command runs.
	// The done channel prevents the watcher goroutine from leaking after
	// the command completes normally.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = session.Close()
		case <-done:
		}
	}()

	output, err := session.CombinedOutput(shellJoin(argv))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return string(output), ctxErr
		}
		return string(output), fmt.Errorf("remote command failed on %s: %w", s.host.Name, err)
	}

	return string(output), nil
}

// Close shuts down the underlying SSH connection.
func (s *SSH) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
