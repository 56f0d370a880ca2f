package playbook

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venvctl/internal/model"
)

// writePlaybook writes playbook content to a temporary file with the given
// name and returns its absolute path. The file lives in a t.TempDir() so
// cleanup is automatic.
func writePlaybook(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err, "failed to write playbook fixture")
	return path
}

// TestLoadYAML verifies that a full YAML playbook is parsed with all
// fields populated and no defaults applied over explicit values.
func TestLoadYAML(t *testing.T) {
	path := writePlaybook(t, "install.yml", `
hosts: aiida
become: true
become_method: sudo
become_user: aiida
project_dir: /home/aiida/aiida-core
requirements: requirements/requirements-py-3.9.txt
venv_bin: /opt/venv/bin
pip_cache: /home/aiida/.cache/pip
editable: false
`)

	pb, err := Load(path)
	require.NoError(t, err, "Load should succeed for a valid YAML playbook")

	assert.Equal(t, "aiida", pb.Hosts)
	assert.True(t, pb.Become)
	assert.Equal(t, "sudo", pb.BecomeMethod)
	assert.Equal(t, "aiida", pb.BecomeUser)
	assert.Equal(t, "/home/aiida/aiida-core", pb.ProjectDir)
	assert.Equal(t, "requirements/requirements-py-3.9.txt", pb.Requirements)
	assert.Equal(t, "/opt/venv/bin", pb.VenvBin)
	assert.Equal(t, "/home/aiida/.cache/pip", pb.PipCache)

	// editable: false is an explicit override of the default.
	require.NotNil(t, pb.Editable)
	assert.False(t, pb.IsEditable())
}

// TestLoadJSONC verifies that a commented JSON playbook parses identically
// to its YAML equivalent.
func TestLoadJSONC(t *testing.T) {
	path := writePlaybook(t, "install.jsonc", `{
  // target group from the inventory
  "hosts": "aiida",
  "become": true,
  "become_user": "aiida",
  "project_dir": "/home/aiida/aiida-core",
  "requirements": "requirements/requirements-py-3.9.txt",
  "venv_bin": "/opt/venv/bin",
  "pip_cache": "/tmp/cache",
}`)

	pb, err := Load(path)
	require.NoError(t, err, "Load should strip JSONC comments and trailing commas")

	assert.Equal(t, "aiida", pb.Hosts)
	assert.Equal(t, "/tmp/cache", pb.PipCache)
	// become without become_method picks up the sudo default.
	assert.Equal(t, "sudo", pb.BecomeMethod)
}

// TestLoadDefaults verifies the documented defaults: hosts falls back to
// "local" and an unset editable field reads as true.
func TestLoadDefaults(t *testing.T) {
	path := writePlaybook(t, "minimal.yml", `
project_dir: /srv/app
requirements: requirements.txt
venv_bin: /opt/venv/bin
`)

	pb, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultHosts, pb.Hosts)
	assert.Nil(t, pb.Editable, "absent editable must stay unset in the struct")
	assert.True(t, pb.IsEditable(), "unset editable must default to true")
	assert.False(t, pb.Become)
	assert.Empty(t, pb.BecomeMethod, "become_method default only applies when become is set")
}

// TestLoadExpandsPaths verifies environment variable and tilde expansion
// in path fields.
func TestLoadExpandsPaths(t *testing.T) {
	t.Setenv("VENVCTL_TEST_PREFIX", "/srv/envs")

	path := writePlaybook(t, "expand.yml", `
project_dir: $VENVCTL_TEST_PREFIX/app
requirements: requirements.txt
venv_bin: $VENVCTL_TEST_PREFIX/venv/bin
pip_cache: ~/.cache/pip
`)

	pb, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/envs/app", pb.ProjectDir)
	assert.Equal(t, "/srv/envs/venv/bin", pb.VenvBin)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", "pip"), pb.PipCache)
}

// TestLoadNotFound verifies the CLIError exit code for a missing playbook.
func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr), "Load must return a CLIError")
	assert.Equal(t, model.ExitPlaybookError, cliErr.Code)
}

// TestLoadInvalidYAML verifies that malformed documents are rejected with
// the playbook exit code rather than a generic error.
func TestLoadInvalidYAML(t *testing.T) {
	path := writePlaybook(t, "broken.yml", "hosts: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitPlaybookError, cliErr.Code)
}

// TestDerivedPaths verifies PipPath and RequirementsPath resolution,
// including the absolute-requirements passthrough.
func TestDerivedPaths(t *testing.T) {
	pb := &Playbook{
		ProjectDir:   "/home/aiida/aiida-core",
		Requirements: "requirements/requirements-py-3.9.txt",
		VenvBin:      "/opt/venv/bin",
	}

	assert.Equal(t, "/opt/venv/bin/pip", pb.PipPath())
	assert.Equal(t, "/home/aiida/aiida-core/requirements/requirements-py-3.9.txt", pb.RequirementsPath())

	pb.Requirements = "/etc/pinned/requirements.txt"
	assert.Equal(t, "/etc/pinned/requirements.txt", pb.RequirementsPath(),
		"absolute requirements paths must be used verbatim")
}
