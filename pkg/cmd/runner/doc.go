// Package runner executes in-process cobra commands such as kind while both streaming and
// capturing their output.
package runner
