package notify_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/stretchr/testify/assert"
)

func TestWriteMessage_Symbols(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  notify.MessageType
		want string
	}{
		{name: "error", msg: notify.ErrorType, want: "✗ hello 42\n"},
		{name: "warning", msg: notify.WarningType, want: "⚠ hello 42\n"},
		{name: "activity", msg: notify.ActivityType, want: "► hello 42\n"},
		{name: "generate", msg: notify.GenerateType, want: "✚ hello 42\n"},
		{name: "success", msg: notify.SuccessType, want: "✔ hello 42\n"},
		{name: "info", msg: notify.InfoType, want: "ℹ hello 42\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			notify.WriteMessage(notify.Message{
				Type:    tc.msg,
				Content: "hello %d",
				Args:    []any{42},
				Writer:  &out,
			})

			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestWriteMessage_Title(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.Titlef(&out, "🚀", "Create %s", "cluster")
	notify.WriteMessage(notify.Message{Type: notify.TitleType, Content: "plain", Writer: &out})

	assert.Equal(t, "🚀 Create cluster\nℹ️ plain\n", out.String())
}

func TestWriteMessage_MultilineIsAligned(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.Errorf(&out, "first\nsecond\n\nthird")

	assert.Equal(t, "✗ first\n  second\n\n  third\n", out.String())
}

func TestSuccessWithTimerf_PrintsTiming(t *testing.T) {
	t.Parallel()

	now := time.Unix(0, 0)
	tmr := timer.NewWithClock(func() time.Time { return now })
	tmr.Start()

	now = now.Add(3 * time.Second)

	var out bytes.Buffer

	notify.SuccessWithTimerf(&out, tmr, "done")

	assert.Equal(t, "✔ done\n⏲ current: 3s\n  total:  3s\n", out.String())
}

func TestGuidancef_NumbersAndWrapsSteps(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	long := strings.Repeat("word ", 30)
	notify.Guidancef(&out, "Next steps:", "coderev secrets generate", long)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")

	assert.Equal(t, "ℹ Next steps:", lines[0])
	assert.Equal(t, "  1. coderev secrets generate", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "  2. word"))
	assert.Greater(t, len(lines), 3, "long step should wrap")

	for _, line := range lines[3:] {
		assert.True(t, strings.HasPrefix(line, "     "), "continuation %q is indented", line)
	}
}

func TestStageWriter_SeparatesTitles(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	writer := notify.NewStageWriter(&out)

	notify.Titlef(writer, "🚀", "Create cluster")
	notify.Activityf(writer, "creating")
	notify.Successf(writer, "created")
	notify.Titlef(writer, "📦", "Build images")

	assert.Equal(t, "🚀 Create cluster\n► creating\n✔ created\n\n📦 Build images\n", out.String())
}
