package helpers_test

import (
	"testing"

	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runNested executes "coderev infra apply <args>" and hands the leaf command to inspect.
func runNested(t *testing.T, args []string, inspect func(leaf *cobra.Command)) {
	t.Helper()

	root := &cobra.Command{Use: "coderev", SilenceUsage: true}
	root.PersistentFlags().Bool(helpers.TimingFlagName, false, "show timing")

	infra := &cobra.Command{Use: "infra"}
	apply := &cobra.Command{
		Use: "apply",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inspect(cmd)

			return nil
		},
	}

	infra.AddCommand(apply)
	root.AddCommand(infra)
	root.SetArgs(append([]string{"infra", "apply"}, args...))

	require.NoError(t, root.Execute())
}

func TestTimingInheritedFromRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		args        []string
		wantEnabled bool
	}{
		{name: "flag after subcommand", args: []string{"--timing"}, wantEnabled: true},
		{name: "explicit false", args: []string{"--timing=false"}, wantEnabled: false},
		{name: "flag absent", args: nil, wantEnabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tmr := timer.New()

			runNested(t, tt.args, func(leaf *cobra.Command) {
				enabled, err := helpers.IsTimingEnabled(leaf)
				require.NoError(t, err)
				assert.Equal(t, tt.wantEnabled, enabled)

				if tt.wantEnabled {
					assert.Same(t, tmr, helpers.MaybeTimer(leaf, tmr))
				} else {
					assert.Nil(t, helpers.MaybeTimer(leaf, tmr))
				}
			})
		})
	}
}

func TestMaybeTimerWithoutTimer(t *testing.T) {
	t.Parallel()

	runNested(t, []string{"--timing"}, func(leaf *cobra.Command) {
		assert.Nil(t, helpers.MaybeTimer(leaf, nil))
	})
}

func TestTimingFlagMissing(t *testing.T) {
	t.Parallel()

	orphan := &cobra.Command{Use: "orphan"}

	_, err := helpers.IsTimingEnabled(orphan)
	require.Error(t, err)
	assert.Nil(t, helpers.MaybeTimer(orphan, timer.New()))

	_, err = helpers.IsTimingEnabled(nil)
	require.ErrorIs(t, err, helpers.ErrNilCommand)
	assert.Nil(t, helpers.MaybeTimer(nil, timer.New()))
}
