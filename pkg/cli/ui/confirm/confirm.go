// Package confirm asks the operator to approve a destructive or billable change.
package confirm

import (
	"bufio"
	"io"
	"strings"

	"github.com/coderev/coderev-infra/pkg/utils/notify"
)

// Prompt writes question as a warning and reports whether the next line read from in
// is "yes" (case-insensitive). A closed or empty input counts as no.
func Prompt(in io.Reader, out io.Writer, question string) bool {
	notify.WriteMessage(notify.Message{
		Type:    notify.WarningType,
		Content: question + ` Type "yes" to continue: `,
		Writer:  out,
	})

	if in == nil {
		return false
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(line), "yes")
}
