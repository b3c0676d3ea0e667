package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunSafelyRecoversPanic(t *testing.T) {
	t.Parallel()

	var errOut bytes.Buffer

	exitCode := runSafely(nil, func([]string) int { panic("kaboom") }, &errOut)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, errOut.String(), "panic recovered: kaboom")
}

func TestRunSafelyPassesExitCode(t *testing.T) {
	t.Parallel()

	var errOut bytes.Buffer

	assert.Equal(t, 0, runSafely(nil, func([]string) int { return 0 }, &errOut))
	assert.Equal(t, 1, runSafely(nil, func([]string) int { return 1 }, &errOut))
	assert.Empty(t, errOut.String())
}

func TestRunWithArgsUnknownCommand(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, runWithArgs([]string{"definitely-not-a-command"}))
}
