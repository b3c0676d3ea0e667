// Package readiness polls Kubernetes resources until they are ready: the API server, nodes,
// pods matching a selector, and deployment rollouts.
//
// Every wait takes a deadline and returns an error wrapping [ErrTimeoutExceeded] when the
// deadline passes; context cancellation is returned as is.
package readiness
