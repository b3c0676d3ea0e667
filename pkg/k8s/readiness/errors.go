package readiness

import "errors"

// ErrTimeoutExceeded is returned when a resource is not ready before its deadline.
var ErrTimeoutExceeded = errors.New("timeout exceeded")

// ErrRolloutFailed is returned when a deployment can no longer make progress.
var ErrRolloutFailed = errors.New("rollout failed")
