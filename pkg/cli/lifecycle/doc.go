// Package lifecycle provides the shared load-config, build-provisioner, run-action flow of
// the cluster commands.
package lifecycle
