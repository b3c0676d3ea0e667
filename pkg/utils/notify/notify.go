package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coderev/coderev-infra/pkg/utils/timer"
	fcolor "github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"
)

// MessageType selects the symbol and color of a message.
type MessageType int

const (
	// ErrorType is a red ✗ line.
	ErrorType MessageType = iota
	// WarningType is a yellow ⚠ line.
	WarningType
	// ActivityType is a ► line for work in progress.
	ActivityType
	// GenerateType is a ✚ line for files written to disk.
	GenerateType
	// SuccessType is a green ✔ line, optionally followed by a timing block.
	SuccessType
	// InfoType is a blue ℹ line.
	InfoType
	// TitleType is a bold stage header prefixed with an emoji.
	TitleType
)

// guidanceWidth is the column at which guidance text wraps.
const guidanceWidth = 88

// Message is a single line (or block) of operator output.
type Message struct {
	Type    MessageType
	Content string
	Args    []any
	// Timer, when set on a SuccessType message, prints stage and total durations.
	Timer timer.Timer
	// Emoji replaces the default title icon for TitleType.
	Emoji string
	// Writer defaults to os.Stdout.
	Writer io.Writer
}

type style struct {
	symbol string
	color  *fcolor.Color
}

func styleFor(msgType MessageType) style {
	switch msgType {
	case ErrorType:
		return style{symbol: "✗ ", color: fcolor.New(fcolor.FgRed)}
	case WarningType:
		return style{symbol: "⚠ ", color: fcolor.New(fcolor.FgYellow)}
	case ActivityType:
		return style{symbol: "► ", color: fcolor.New(fcolor.Reset)}
	case GenerateType:
		return style{symbol: "✚ ", color: fcolor.New(fcolor.Reset)}
	case SuccessType:
		return style{symbol: "✔ ", color: fcolor.New(fcolor.FgGreen)}
	case InfoType:
		return style{symbol: "ℹ ", color: fcolor.New(fcolor.FgBlue)}
	case TitleType:
		return style{color: fcolor.New(fcolor.Reset, fcolor.Bold)}
	default:
		return style{color: fcolor.New(fcolor.Reset)}
	}
}

// WriteMessage renders msg.
//
// Multi-line content is indented so continuation lines align with the text after the
// symbol. Write errors are reported on stderr and otherwise ignored.
func WriteMessage(msg Message) {
	out := msg.Writer
	if out == nil {
		out = os.Stdout
	}

	content := msg.Content
	if len(msg.Args) > 0 {
		content = fmt.Sprintf(msg.Content, msg.Args...)
	}

	st := styleFor(msg.Type)

	if msg.Type == TitleType {
		emoji := msg.Emoji
		if emoji == "" {
			emoji = "ℹ️"
		}

		report(st.color.Fprintf(out, "%s %s\n", emoji, content))

		return
	}

	report(st.color.Fprintf(out, "%s%s\n", st.symbol, alignContinuation(content, st.symbol)))

	if msg.Type == SuccessType && msg.Timer != nil {
		writeTiming(out, msg.Timer)
	}
}

func writeTiming(out io.Writer, tmr timer.Timer) {
	total, stage := tmr.GetTiming()
	green := fcolor.New(fcolor.FgGreen)

	report(green.Fprintf(out, "⏲ current: %s\n", stage))
	report(green.Fprintf(out, "  total:  %s\n", total))
}

// Errorf writes an error line.
func Errorf(out io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ErrorType, Content: format, Args: args, Writer: out})
}

// Warningf writes a warning line.
func Warningf(out io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: WarningType, Content: format, Args: args, Writer: out})
}

// Activityf writes an activity line.
func Activityf(out io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ActivityType, Content: format, Args: args, Writer: out})
}

// Generatef writes a generated-file line.
func Generatef(out io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: GenerateType, Content: format, Args: args, Writer: out})
}

// Successf writes a success line.
func Successf(out io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: SuccessType, Content: format, Args: args, Writer: out})
}

// SuccessWithTimerf writes a success line followed by the timing block of tmr.
func SuccessWithTimerf(out io.Writer, tmr timer.Timer, format string, args ...any) {
	WriteMessage(Message{Type: SuccessType, Content: format, Args: args, Timer: tmr, Writer: out})
}

// Infof writes an info line.
func Infof(out io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: InfoType, Content: format, Args: args, Writer: out})
}

// Titlef writes a stage title.
func Titlef(out io.Writer, emoji, format string, args ...any) {
	WriteMessage(
		Message{Type: TitleType, Content: fmt.Sprintf(format, args...), Emoji: emoji, Writer: out},
	)
}

// Guidancef writes a numbered list of next steps as an info block.
// Each step is wrapped at a fixed width and continuation lines are indented under the step text.
func Guidancef(out io.Writer, heading string, steps ...string) {
	var builder strings.Builder

	builder.WriteString(heading)

	for idx, step := range steps {
		prefix := fmt.Sprintf("%d. ", idx+1)
		wrapped := wordwrap.WrapString(step, uint(guidanceWidth-len(prefix)))
		indent := strings.Repeat(" ", len(prefix))

		builder.WriteString("\n")
		builder.WriteString(prefix)
		builder.WriteString(strings.ReplaceAll(wrapped, "\n", "\n"+indent))
	}

	WriteMessage(Message{Type: InfoType, Content: builder.String(), Writer: out})
}

func report[T any](_ T, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "notify: failed to print message: %v\n", err)
	}
}

func alignContinuation(content, symbol string) string {
	if symbol == "" || !strings.Contains(content, "\n") {
		return content
	}

	indent := strings.Repeat(" ", len([]rune(symbol)))
	lines := strings.Split(content, "\n")

	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}

	return strings.Join(lines, "\n")
}
