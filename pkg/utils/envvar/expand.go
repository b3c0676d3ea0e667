// Package envvar expands environment variable placeholders in configuration values.
package envvar

import (
	"os"
	"regexp"
)

// pattern matches ${NAME} and ${NAME:-fallback}.
var pattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)(?::-([^}]*))?\}`)

// Expand replaces ${NAME} placeholders with the value of NAME. An unset or empty variable
// expands to the fallback given as ${NAME:-fallback}, or to the empty string.
func Expand(value string) string {
	if value == "" {
		return value
	}

	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		groups := pattern.FindStringSubmatch(match)

		if resolved := os.Getenv(groups[1]); resolved != "" {
			return resolved
		}

		return groups[2]
	})
}
