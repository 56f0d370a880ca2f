// Package model defines the domain types and value objects for the
// venvctl CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (Host, StepResult, HostReport, RunReport) are transient
// representations of a single provisioning run — there are no persistent
// state files.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
