package helpers

import (
	"errors"
	"fmt"

	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const (
	// TimingFlagName is the persistent flag enabling per-activity timing output.
	TimingFlagName = "timing"
	// ConfigFlagName is the persistent flag selecting the config file.
	ConfigFlagName = "config"
)

// ErrNilCommand is returned when a helper receives a nil command.
var ErrNilCommand = errors.New("command is nil")

// IsTimingEnabled reports whether --timing is set on cmd or inherited from a parent.
func IsTimingEnabled(cmd *cobra.Command) (bool, error) {
	if cmd == nil {
		return false, ErrNilCommand
	}

	flag := cmd.Flags().Lookup(TimingFlagName)
	if flag == nil {
		flag = cmd.InheritedFlags().Lookup(TimingFlagName)
	}

	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(TimingFlagName)
	}

	if flag == nil {
		return false, fmt.Errorf("flag %q not defined", TimingFlagName)
	}

	return flag.Value.String() == "true", nil
}

// MaybeTimer returns tmr when timing output is enabled, nil otherwise.
func MaybeTimer(cmd *cobra.Command, tmr timer.Timer) timer.Timer {
	if tmr == nil {
		return nil
	}

	enabled, err := IsTimingEnabled(cmd)
	if err != nil || !enabled {
		return nil
	}

	return tmr
}
