// Package main is the entry point of the coderev CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/coderev/coderev-infra/internal/buildmeta"
	"github.com/coderev/coderev-infra/pkg/cli/cmd"
	"github.com/coderev/coderev-infra/pkg/cli/ui"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
)

func main() {
	ui.SetTerminalTitle(os.Stdout, "coderev")

	exitCode := runSafely(os.Args[1:], runWithArgs, os.Stderr)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

//nolint:nonamedreturns // Named return simplifies panic recovery logic.
func runSafely(args []string, runner func([]string) int, errWriter io.Writer) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			panicMessage := fmt.Sprintf("panic recovered: %v\n%s", r, debug.Stack())
			notify.WriteMessage(notify.Message{
				Type:    notify.ErrorType,
				Content: panicMessage,
				Writer:  errWriter,
			})

			exitCode = 1
		}
	}()

	exitCode = runner(args)

	return exitCode
}

func runWithArgs(args []string) int {
	rootCmd := cmd.NewRootCmd(buildmeta.Version, buildmeta.Commit, buildmeta.Date)
	rootCmd.SetArgs(args)

	err := cmd.Execute(rootCmd)
	if err != nil {
		notify.Errorf(rootCmd.ErrOrStderr(), "%v", err)

		return 1
	}

	return 0
}
