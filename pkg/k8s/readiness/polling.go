package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// PollInterval is the delay between readiness checks.
var PollInterval = 2 * time.Second //nolint:gochecknoglobals // overridden in tests

// PollForReadiness calls check immediately and then every PollInterval until it reports done,
// returns an error, or deadline passes.
func PollForReadiness(
	ctx context.Context,
	deadline time.Duration,
	check func(ctx context.Context) (bool, error),
) error {
	err := wait.PollUntilContextTimeout(ctx, PollInterval, deadline, true, check)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return fmt.Errorf("polling cancelled: %w", ctx.Err())
	}

	if wait.Interrupted(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeoutExceeded, deadline)
	}

	return err
}
