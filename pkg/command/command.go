package command

import (
	"context"
	"fmt"
	"strings"
)

// Command is a program invocation expressed as an argument vector. It is
// never passed through a shell, so arguments are delivered verbatim.
type Command struct {
	Name string
	Args []string

	// Working directory, empty means the current one
	Dir string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecutionError is returned when a command exits with a non-zero status
// or cannot be started at all (ExitCode is -1 then).
type ExecutionError struct {
	Command  Command
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", e.Command.Name, e.ExitCode)

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}

	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Diagnostic returns the text most useful to a client: captured stderr if
// there is any, the underlying error otherwise.
func (e *ExecutionError) Diagnostic() string {
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		return stderr
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return e.Error()
}
