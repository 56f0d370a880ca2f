// Package pip constructs the installer command lines for the two
// provisioning steps.
//
// The builders here are pure functions from configuration to argv slices;
// execution and privilege escalation happen in the target and engine
// layers. Keeping construction separate makes the exact invocations
// directly testable: the ordering guarantees (requirements before project,
// --no-deps always present on the project step) live here.
package pip

// RequirementsArgs builds the argv for the dependency installation step:
//
//	<pip> install --cache-dir <cacheDir> -r <requirementsPath>
//
// The cache directory is passed through verbatim; pip creates it when it
// does not exist. When cacheDir is empty the flag is omitted and pip uses
// its own default cache location.
//
// This step performs full dependency resolution. It must never pass
// --no-deps: the project step relies on this step having satisfied every
// pinned dependency so that it can skip resolution entirely.
func RequirementsArgs(pipPath, cacheDir, requirementsPath string) []string {
	args := []string{pipPath, "install"}
	if cacheDir != "" {
		args = append(args, "--cache-dir", cacheDir)
	}
	args = append(args, "-r", requirementsPath)
	return args
}

// ProjectArgs builds the argv for the project installation step:
//
//	<pip> install --no-deps [-e] <projectDir>
//
// --no-deps is unconditional: the requirements step already installed the
// full pinned dependency set, and re-resolving here could pull versions
// that conflict with the pins. The -e flag selects an editable install so
// that source edits take effect without reinstalling; it is included
// whenever editable mode is enabled (the playbook default).
func ProjectArgs(pipPath, projectDir string, editable bool) []string {
	args := []string{pipPath, "install", "--no-deps"}
	if editable {
		args = append(args, "-e")
	}
	args = append(args, projectDir)
	return args
}
