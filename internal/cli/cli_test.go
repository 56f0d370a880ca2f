package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venvctl/internal/model"
)

// writeFile writes a fixture file into a temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err, "failed to write fixture %s", name)
	return path
}

// fixturePlaybook is a valid playbook targeting the "aiida" group.
const fixturePlaybook = `
hosts: aiida
become: true
become_user: aiida
project_dir: /home/aiida/aiida-core
requirements: requirements/requirements-py-3.9.txt
venv_bin: /opt/venv/bin
pip_cache: /tmp/cache
`

// fixtureInventory declares the "aiida" group with two hosts.
const fixtureInventory = `
groups:
  aiida:
    - name: worker1
      connection: ssh
      addr: worker1.lab:22
      user: ubuntu
      key_file: /home/me/.ssh/id_ed25519
    - name: builder
      connection: docker
      container: aiida-builder
`

// TestRunCheckPrintsPlan verifies the dry run resolves hosts and prints
// both installer invocations in order without executing anything.
func TestRunCheckPrintsPlan(t *testing.T) {
	pbPath := writeFile(t, "install.yml", fixturePlaybook)
	invPath := writeFile(t, "hosts.yml", fixtureInventory)

	var out bytes.Buffer
	err := runCheck(&out, pbPath, &checkFlags{inventory: invPath})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "worker1 (ssh)")
	assert.Contains(t, text, "builder (docker)")

	// Both steps appear, requirements before project, with escalation
	// wrapping and the literal configured paths.
	reqIdx := bytes.Index(out.Bytes(), []byte("requirements"))
	projIdx := bytes.Index(out.Bytes(), []byte("project"))
	require.GreaterOrEqual(t, reqIdx, 0)
	require.Greater(t, projIdx, reqIdx, "requirements step must be listed before the project step")

	assert.Contains(t, text, "sudo -H -n -u aiida -- /opt/venv/bin/pip install --cache-dir /tmp/cache -r /home/aiida/aiida-core/requirements/requirements-py-3.9.txt")
	assert.Contains(t, text, "--no-deps -e /home/aiida/aiida-core")
}

// TestRunCheckInvalidPlaybook verifies validation failures surface as a
// playbook error with every offending field mentioned.
func TestRunCheckInvalidPlaybook(t *testing.T) {
	pbPath := writeFile(t, "broken.yml", "hosts: aiida\nrequirements: reqs.txt\n")

	var out bytes.Buffer
	err := runCheck(&out, pbPath, &checkFlags{})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitPlaybookError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "project_dir")
	assert.Contains(t, cliErr.Message, "venv_bin")
}

// TestRunCheckUnknownSelector verifies an unresolvable selector is an
// inventory error.
func TestRunCheckUnknownSelector(t *testing.T) {
	pbPath := writeFile(t, "install.yml", fixturePlaybook)

	var out bytes.Buffer
	// No inventory: the implicit local inventory has no "aiida" group.
	err := runCheck(&out, pbPath, &checkFlags{})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitInventoryError, cliErr.Code)
}

// TestRunHostsTable verifies the hosts listing output.
func TestRunHostsTable(t *testing.T) {
	pbPath := writeFile(t, "install.yml", fixturePlaybook)
	invPath := writeFile(t, "hosts.yml", fixtureInventory)

	var out bytes.Buffer
	err := runHosts(&out, pbPath, &hostsFlags{inventory: invPath})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "NAME")
	assert.Contains(t, text, "ubuntu@worker1.lab:22")
	assert.Contains(t, text, "aiida-builder")
}

// TestLimitHosts verifies single-host restriction and the error for an
// unmatched name.
func TestLimitHosts(t *testing.T) {
	hosts := []model.Host{
		{Name: "worker1"},
		{Name: "worker2"},
	}

	limited, err := limitHosts(hosts, "worker2")
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "worker2", limited[0].Name)

	_, err = limitHosts(hosts, "worker9")
	require.Error(t, err)
	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitInventoryError, cliErr.Code)
}

// TestPrintReportText verifies the per-host report formatting for mixed
// outcomes, including indented installer output on failures.
func TestPrintReportText(t *testing.T) {
	report := &model.RunReport{
		Playbook: "install.yml",
		Hosts: []model.HostReport{
			{
				Host: model.Host{Name: "good", Connection: model.ConnectionLocal},
				Steps: []model.StepResult{
					{Kind: model.StepRequirements, Status: model.StepOK, Duration: 1200 * time.Millisecond},
					{Kind: model.StepProject, Status: model.StepOK, Duration: 300 * time.Millisecond},
				},
			},
			{
				Host: model.Host{Name: "bad", Connection: model.ConnectionSSH},
				Steps: []model.StepResult{
					{
						Kind:   model.StepRequirements,
						Status: model.StepFailed,
						Output: "ERROR: No matching distribution found for somepkg",
					},
					{Kind: model.StepProject, Status: model.StepSkipped},
				},
			},
		},
	}

	var out bytes.Buffer
	printReportText(&out, report)

	text := out.String()
	assert.Contains(t, text, "good (local):")
	assert.Contains(t, text, "bad (ssh):")
	assert.Contains(t, text, "skipped")
	assert.Contains(t, text, "      ERROR: No matching distribution found for somepkg")
	assert.Contains(t, text, "2 host(s): 1 ok, 1 failed")
}
