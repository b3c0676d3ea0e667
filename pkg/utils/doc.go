// Package utils provides utility packages for common operations.
//
//   - envvar: ${NAME} and ${NAME:-fallback} expansion
//   - notify: Formatted message display with symbols, colors, and timing
//   - timer: Execution time tracking for single and multi-stage operations
package utils
