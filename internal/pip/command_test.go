package pip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRequirementsArgs verifies the exact invocation for the dependency
// installation step with literal inputs.
func TestRequirementsArgs(t *testing.T) {
	args := RequirementsArgs(
		"/opt/venv/bin/pip",
		"/tmp/cache",
		"/home/aiida/aiida-core/requirements/requirements-py-3.9.txt",
	)

	assert.Equal(t, []string{
		"/opt/venv/bin/pip", "install",
		"--cache-dir", "/tmp/cache",
		"-r", "/home/aiida/aiida-core/requirements/requirements-py-3.9.txt",
	}, args)
}

// TestRequirementsArgsNoCache verifies that an empty cache directory
// omits the --cache-dir flag entirely rather than passing an empty value.
func TestRequirementsArgsNoCache(t *testing.T) {
	args := RequirementsArgs("/opt/venv/bin/pip", "", "/srv/app/requirements.txt")

	assert.Equal(t, []string{
		"/opt/venv/bin/pip", "install", "-r", "/srv/app/requirements.txt",
	}, args)
	assert.NotContains(t, args, "--cache-dir")
}

// TestRequirementsArgsNeverSkipsResolution guards the contract between the
// two steps: the requirements step must perform full resolution so the
// project step can safely pass --no-deps.
func TestRequirementsArgsNeverSkipsResolution(t *testing.T) {
	args := RequirementsArgs("/opt/venv/bin/pip", "/tmp/cache", "/srv/reqs.txt")
	assert.NotContains(t, args, "--no-deps")
}

// TestProjectArgsEditable verifies the editable-mode invocation, which is
// the playbook default.
func TestProjectArgsEditable(t *testing.T) {
	args := ProjectArgs("/opt/venv/bin/pip", "/home/aiida/aiida-core", true)

	assert.Equal(t, []string{
		"/opt/venv/bin/pip", "install", "--no-deps", "-e", "/home/aiida/aiida-core",
	}, args)
}

// TestProjectArgsNonEditable verifies that disabling editable mode drops
// only the -e flag.
func TestProjectArgsNonEditable(t *testing.T) {
	args := ProjectArgs("/opt/venv/bin/pip", "/home/aiida/aiida-core", false)

	assert.Equal(t, []string{
		"/opt/venv/bin/pip", "install", "--no-deps", "/home/aiida/aiida-core",
	}, args)
}

// TestProjectArgsAlwaysNoDeps guards the invariant that the project step
// never re-resolves dependencies, regardless of editable mode.
func TestProjectArgsAlwaysNoDeps(t *testing.T) {
	for _, editable := range []bool{true, false} {
		args := ProjectArgs("/opt/venv/bin/pip", "/srv/app", editable)
		assert.Contains(t, args, "--no-deps", "editable=%v", editable)
	}
}
