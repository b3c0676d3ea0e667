// Package errorhandler runs the root command and turns cobra's stderr chatter into a
// single error value that main can print once.
package errorhandler

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

// InterruptedMessage replaces the captured output when the command context was cancelled.
const InterruptedMessage = "interrupted"

// Normalizer cleans up the text cobra wrote to stderr before it becomes an error message.
type Normalizer interface {
	Normalize(raw string) string
}

// Executor runs a cobra command with its error stream redirected into a buffer.
type Executor struct {
	normalizer Normalizer
}

// Option configures an Executor.
type Option func(*Executor)

// WithNormalizer swaps the stderr normalizer.
func WithNormalizer(normalizer Normalizer) Option {
	return func(e *Executor) {
		if normalizer != nil {
			e.normalizer = normalizer
		}
	}
}

// NewExecutor constructs an Executor using DefaultNormalizer unless overridden.
func NewExecutor(opts ...Option) *Executor {
	executor := &Executor{normalizer: DefaultNormalizer{}}
	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs cmd. A failure comes back as a *CommandError wrapping the original error.
func (e *Executor) Execute(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	var errBuf bytes.Buffer

	originalErrWriter := cmd.ErrOrStderr()

	cmd.SetErr(&errBuf)
	defer cmd.SetErr(originalErrWriter)

	err := cmd.Execute()
	if err == nil {
		return nil
	}

	message := e.normalizer.Normalize(errBuf.String())
	if errors.Is(err, context.Canceled) {
		message = InterruptedMessage
	}

	return &CommandError{message: message, cause: err}
}

// CommandError is a failed command run together with the normalized stderr output.
type CommandError struct {
	message string
	cause   error
}

// Message returns the normalized stderr output, which may be empty.
func (e *CommandError) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

func (e *CommandError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return e.message
	case e.message == "":
		return e.cause.Error()
	case strings.Contains(e.message, e.cause.Error()):
		return e.message
	default:
		return e.message + ": " + e.cause.Error()
	}
}

func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// DefaultNormalizer drops blank lines and the "Error: " prefix cobra puts in front of
// every error it prints, keeping usage hints on the following lines.
type DefaultNormalizer struct{}

// Normalize implements Normalizer.
func (DefaultNormalizer) Normalize(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		kept = append(kept, strings.TrimPrefix(line, "Error: "))
	}

	return strings.Join(kept, "\n")
}
