package kindprovisioner

import (
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/kind/pkg/log"
)

// streamLogger forwards kind's info-level console output to a writer.
// Verbose levels (V(1) and higher) are dropped.
type streamLogger struct {
	writer io.Writer
}

var _ log.Logger = (*streamLogger)(nil)

func (l *streamLogger) Warn(message string) { l.write(message) }

func (l *streamLogger) Warnf(format string, args ...any) { l.write(fmt.Sprintf(format, args...)) }

func (l *streamLogger) Error(message string) { l.write(message) }

func (l *streamLogger) Errorf(format string, args ...any) { l.write(fmt.Sprintf(format, args...)) }

func (l *streamLogger) V(level log.Level) log.InfoLogger {
	if level > 0 {
		return noopInfoLogger{}
	}

	return l
}

func (l *streamLogger) Info(message string) { l.write(message) }

func (l *streamLogger) Infof(format string, args ...any) { l.write(fmt.Sprintf(format, args...)) }

func (l *streamLogger) Enabled() bool { return true }

func (l *streamLogger) write(message string) {
	if l == nil || l.writer == nil {
		return
	}

	switch {
	case message == "":
		_, _ = io.WriteString(l.writer, "\n")
	case strings.ContainsRune(message, '\r') || strings.HasSuffix(message, "\n"):
		_, _ = io.WriteString(l.writer, message)
	default:
		_, _ = io.WriteString(l.writer, message+"\n")
	}
}

type noopInfoLogger struct{}

func (noopInfoLogger) Info(string)          {}
func (noopInfoLogger) Infof(string, ...any) {}
func (noopInfoLogger) Enabled() bool        { return false }
