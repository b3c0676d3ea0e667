// Package cli provides reusable helpers for command wiring and execution.
//
//   - cli/cmd: The cobra command tree
//   - cli/helpers: Conversions from loaded config to service inputs
//   - cli/lifecycle: Handler wrapping, config loading and cluster guards
//   - cli/testutil: Fakes for provisioners and Kubernetes clients
//   - cli/ui: Terminal title and error handling
package cli
