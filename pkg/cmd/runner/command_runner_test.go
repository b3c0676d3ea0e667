package runner_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/coderev/coderev-infra/pkg/cmd/runner"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCommandFailed = errors.New("boom")

func TestCobraCommandRunner_TeesOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	cmd := &cobra.Command{
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("creating", args[0])
			cmd.PrintErrln("progress")
		},
	}

	res, err := runner.NewCobraCommandRunner(&stdout, &stderr).Run(context.Background(), cmd, []string{"coderev"})

	require.NoError(t, err)
	assert.Equal(t, "creating coderev\n", res.Stdout)
	assert.Equal(t, "progress\n", res.Stderr)
	assert.Equal(t, res.Stdout, stdout.String())
	assert.Equal(t, res.Stderr, stderr.String())
}

func TestCobraCommandRunner_KeepsOutputOnError(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.PrintErrln("node failed")

			return errCommandFailed
		},
	}

	res, err := runner.NewCobraCommandRunner(&bytes.Buffer{}, &bytes.Buffer{}).Run(context.Background(), cmd, nil)

	require.ErrorIs(t, err, errCommandFailed)
	assert.Contains(t, err.Error(), "command execution failed")
	assert.Equal(t, "node failed\n", res.Stderr)
}
