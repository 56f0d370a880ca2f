// validate.go provides validation functions that ensure a loaded playbook
// is complete and internally consistent before any installer runs.
//
// Validation is purely declarative: it checks field presence, path shape,
// and enumerated values. Whether the paths actually exist on a target host
// is only checkable on that host, so existence checks are limited to the
// local requirements file when the target set is local-only.
package playbook

import (
	"fmt"
	"path/filepath"
)

// becomeMethods enumerates the supported privilege escalation tools.
var becomeMethods = map[string]bool{
	"sudo": true,
	"su":   true,
	"doas": true,
}

// ValidationError represents a specific validation failure in a playbook.
type ValidationError struct {
	// Field is the playbook key that failed validation (e.g., "venv_bin").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("playbook validation error: %s: %s", e.Field, e.Message)
}

// Validate performs consistency checks on a loaded playbook. It returns a
// list of validation errors (empty list = valid playbook).
//
// Checks performed:
//   - Required fields: project_dir, requirements, venv_bin
//   - Path shape: project_dir and venv_bin must be absolute
//   - become_user must be set when become is enabled
//   - become_method must be one of sudo, su, doas
func Validate(pb *Playbook) []ValidationError {
	var errs []ValidationError

	// Check 1: Required path fields. Without these there is nothing to
	// install or nowhere to install it.
	if pb.ProjectDir == "" {
		errs = append(errs, ValidationError{
			Field:   "project_dir",
			Message: "project_dir is required",
		})
	} else if !filepath.IsAbs(pb.ProjectDir) {
		errs = append(errs, ValidationError{
			Field:   "project_dir",
			Message: "project_dir must be an absolute path on the target host",
		})
	}

	if pb.Requirements == "" {
		errs = append(errs, ValidationError{
			Field:   "requirements",
			Message: "requirements is required",
		})
	}

	if pb.VenvBin == "" {
		errs = append(errs, ValidationError{
			Field:   "venv_bin",
			Message: "venv_bin is required",
		})
	} else if !filepath.IsAbs(pb.VenvBin) {
		errs = append(errs, ValidationError{
			Field:   "venv_bin",
			Message: "venv_bin must be an absolute path on the target host",
		})
	}

	// Check 2: Escalation settings are only meaningful together.
	if pb.Become {
		if pb.BecomeUser == "" {
			errs = append(errs, ValidationError{
				Field:   "become_user",
				Message: "become_user is required when become is enabled",
			})
		}
		if !becomeMethods[pb.BecomeMethod] {
			errs = append(errs, ValidationError{
				Field:   "become_method",
				Message: fmt.Sprintf("unsupported become_method %q (valid: sudo, su, doas)", pb.BecomeMethod),
			})
		}
	}

	// Check 3: The cache directory is optional, but when given it must be
	// absolute so that the installer does not resolve it against whatever
	// working directory the escalated process happens to get.
	if pb.PipCache != "" && !filepath.IsAbs(pb.PipCache) {
		errs = append(errs, ValidationError{
			Field:   "pip_cache",
			Message: "pip_cache must be an absolute path on the target host",
		})
	}

	return errs
}
