// docker.go implements the Docker transport: installer commands run inside
// an already-running container via the Docker Engine API exec endpoint.
//
// The transport handles automatic Docker socket detection across platforms
// (DOCKER_HOST, then platform default socket paths) and verifies daemon
// connectivity with a ping before any step executes.
package target

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"venvctl/internal/model"
)

// defaultPingTimeout is the maximum duration to wait for a Docker daemon
// response during the connectivity check. 5 seconds is generous enough
// for Docker Desktop on macOS, which responds slower than native Linux.
const defaultPingTimeout = 5 * time.Second

// Docker executes commands inside a running container. The container must
// exist and be running before the run starts; this transport never creates
// or starts containers.
type Docker struct {
	host  model.Host
	inner *client.Client
}

// NewDocker creates a Docker transport for the host's target container.
//
// Socket detection priority:
//  1. DOCKER_HOST environment variable (used as-is when set)
//  2. Platform default socket paths:
//     - Linux: /var/run/docker.sock
//     - macOS: /var/run/docker.sock, then ~/.docker/run/docker.sock
//     - Windows: npipe:////./pipe/docker_engine
//
// The daemon is pinged before returning so that an unreachable daemon
// fails at connection time (ExitConnectionFailed) rather than mid-run.
func NewDocker(ctx context.Context, host model.Host) (*Docker, error) {
	dockerHost := os.Getenv("DOCKER_HOST")
	if dockerHost == "" {
		detected, err := detectDockerHost()
		if err != nil {
			return nil, model.WrapCLIError(
				model.ExitConnectionFailed,
				"Docker socket not found",
				err,
			)
		}
		dockerHost = detected
	}

	// WithAPIVersionNegotiation ensures compatibility across daemon
	// versions without hardcoding a specific API version.
	inner, err := client.NewClientWithOpts(
		client.WithHost(dockerHost),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConnectionFailed,
			fmt.Sprintf("failed to create Docker client for host %q", dockerHost),
			err,
		)
	}

	d := &Docker{host: host, inner: inner}
	if err := d.ping(ctx); err != nil {
		_ = inner.Close()
		return nil, err
	}

	return d, nil
}

// detectDockerHost determines the Docker socket path for the current
// platform by probing known locations. Existence checks are used rather
// than connection attempts because they are fast and don't require a
// running daemon; ping handles connectivity verification.
func detectDockerHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
		})

	case "darwin":
		// Docker Desktop creates a symlink at the standard path; newer
		// versions also place a socket under the user's home directory.
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return detectUnixSocket([]string{
				"/var/run/docker.sock",
			})
		}
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
			homeDir + "/.docker/run/docker.sock",
		})

	case "windows":
		// Windows uses a fixed named pipe. os.Stat does not work on named
		// pipes, so reachability is probed with a brief dial.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, 1*time.Second)
		if err == nil {
			conn.Close()
			return "npipe://" + pipePath, nil
		}
		return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// detectUnixSocket probes a list of Unix socket paths and returns the
// Docker host URI for the first socket that exists on the filesystem.
func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf(
		"Docker socket not found at any of: %v — is Docker running?",
		paths,
	)
}

// ping verifies the Docker daemon is reachable and responsive within
// defaultPingTimeout.
func (d *Docker) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := d.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitConnectionFailed,
			"Docker daemon is not responding — is Docker running?",
			err,
		)
	}
	return nil
}

// Run executes the argv inside the target container via the exec endpoint
// and returns its combined output.
//
// The multiplexed attach stream interleaves stdout and stderr frames;
// stdcopy demultiplexes them into a single buffer, matching the combined
// output the other transports produce. The exit code comes from a final
// exec inspect, since the attach stream itself carries no status.
func (d *Docker) Run(ctx context.Context, argv []string) (string, error) {
	execResp, err := d.inner.ContainerExecCreate(ctx, d.host.Container, container.ExecOptions{
		Cmd:          argv,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitConnectionFailed,
			fmt.Sprintf("failed to create exec in container %q", d.host.Container),
			err,
		)
	}

	attach, err := d.inner.ContainerExecAttach(ctx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitConnectionFailed,
			fmt.Sprintf("failed to attach to exec in container %q", d.host.Container),
			err,
		)
	}
	defer attach.Close()

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, attach.Reader); err != nil {
		return buf.String(), fmt.Errorf("failed to read exec output from container %q: %w", d.host.Container, err)
	}

	inspect, err := d.inner.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return buf.String(), fmt.Errorf("failed to inspect exec in container %q: %w", d.host.Container, err)
	}

	if inspect.ExitCode != 0 {
		return buf.String(), fmt.Errorf("command exited with code %d in container %q", inspect.ExitCode, d.host.Container)
	}

	return buf.String(), nil
}

// Close releases the underlying Docker client connection.
// Close is safe to call multiple times.
func (d *Docker) Close() error {
	if d.inner != nil {
		return d.inner.Close()
	}
	return nil
}
