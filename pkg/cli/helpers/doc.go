// Package helpers provides common CLI utilities for command handling: timing flag
// detection and resolution of the kubeconfig and context of the local cluster.
package helpers
