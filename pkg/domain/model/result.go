package model

import (
	"strings"
	"time"
)

// ExecutionResult represents the outcome of one shell invocation
type ExecutionResult struct {
	Command  string        // Joined command line passed to the shell
	ExitCode int           // Process exit code
	Stdout   string        // Captured standard output
	Stderr   string        // Captured standard error
	Duration time.Duration // Wall time of the process
}

// Succeeded reports whether the process exited with code 0
func (r *ExecutionResult) Succeeded() bool {
	return r.ExitCode == 0
}

// CommandSeparator joins rendered commands into one shell command line. Like
// the shell `;` operator, later commands run regardless of earlier failures.
const CommandSeparator = "; "

// JoinCommands builds the single command line passed to the shell
func JoinCommands(commands []string) string {
	return strings.Join(commands, CommandSeparator)
}
