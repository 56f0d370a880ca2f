package playbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validPlaybook returns a playbook that passes all validation checks.
// Tests mutate single fields to provoke specific errors.
func validPlaybook() *Playbook {
	return &Playbook{
		Hosts:        "aiida",
		Become:       true,
		BecomeMethod: "sudo",
		BecomeUser:   "aiida",
		ProjectDir:   "/home/aiida/aiida-core",
		Requirements: "requirements/requirements-py-3.9.txt",
		VenvBin:      "/opt/venv/bin",
		PipCache:     "/home/aiida/.cache/pip",
	}
}

// fieldErrors extracts the field names from a list of validation errors,
// making assertions independent of message wording.
func fieldErrors(errs []ValidationError) []string {
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidateOK(t *testing.T) {
	errs := Validate(validPlaybook())
	assert.Empty(t, errs, "a complete playbook must validate cleanly")
}

func TestValidateRequiredFields(t *testing.T) {
	pb := &Playbook{}
	errs := Validate(pb)

	fields := fieldErrors(errs)
	assert.Contains(t, fields, "project_dir")
	assert.Contains(t, fields, "requirements")
	assert.Contains(t, fields, "venv_bin")
}

func TestValidateRelativePathsRejected(t *testing.T) {
	pb := validPlaybook()
	pb.ProjectDir = "aiida-core"
	pb.VenvBin = "venv/bin"
	pb.PipCache = ".cache/pip"

	fields := fieldErrors(Validate(pb))
	assert.Contains(t, fields, "project_dir")
	assert.Contains(t, fields, "venv_bin")
	assert.Contains(t, fields, "pip_cache")
}

func TestValidateBecomeRequiresUser(t *testing.T) {
	pb := validPlaybook()
	pb.BecomeUser = ""

	fields := fieldErrors(Validate(pb))
	assert.Contains(t, fields, "become_user")
}

func TestValidateBecomeMethod(t *testing.T) {
	pb := validPlaybook()
	pb.BecomeMethod = "runas"

	errs := Validate(pb)
	require.Len(t, errs, 1)
	assert.Equal(t, "become_method", errs[0].Field)
	assert.Contains(t, errs[0].Message, "runas")

	// All supported methods pass.
	for _, method := range []string{"sudo", "su", "doas"} {
		pb.BecomeMethod = method
		assert.Empty(t, Validate(pb), "method %q should be accepted", method)
	}
}

func TestValidateBecomeDisabledSkipsEscalationChecks(t *testing.T) {
	pb := validPlaybook()
	pb.Become = false
	pb.BecomeUser = ""
	pb.BecomeMethod = ""

	assert.Empty(t, Validate(pb), "escalation fields are ignored when become is off")
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "venv_bin", Message: "venv_bin is required"}
	assert.Contains(t, err.Error(), "venv_bin")
	assert.Contains(t, err.Error(), "required")
}
