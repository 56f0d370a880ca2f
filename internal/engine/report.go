// report.go classifies run outcomes into process exit codes.
package engine

import (
	"strings"

	"venvctl/internal/model"
)

// escalationDenials are output fragments the supported escalation tools
// print when they refuse to run a command non-interactively. sudo -n
// prints the password message, su and doas report authentication or
// permission failures.
var escalationDenials = []string{
	"a password is required",
	"sudo: a terminal is required",
	"su: Authentication failure",
	"doas: Operation not permitted",
	"is not in the sudoers file",
}

// ExitCodeFor reduces a run report to the process exit code.
//
// Classification priority, worst first:
//  1. connection failure on any host → ExitConnectionFailed
//  2. escalation denial on any host → ExitEscalationFailed
//  3. any failed step → ExitInstallFailed
//  4. otherwise → ExitSuccess
func ExitCodeFor(report *model.RunReport) model.ExitCode {
	code := model.ExitSuccess

	for i := range report.Hosts {
		hr := &report.Hosts[i]

		if hr.Error != "" {
			return model.ExitConnectionFailed
		}

		for _, step := range hr.Steps {
			if step.Status != model.StepFailed {
				continue
			}
			if isEscalationDenial(step.Output) {
				code = model.ExitEscalationFailed
			} else if code != model.ExitEscalationFailed {
				code = model.ExitInstallFailed
			}
		}
	}

	return code
}

// isEscalationDenial reports whether a step's output looks like the
// escalation tool refusing to run, as opposed to the installer failing.
func isEscalationDenial(output string) bool {
	for _, denial := range escalationDenials {
		if strings.Contains(output, denial) {
			return true
		}
	}
	return false
}
