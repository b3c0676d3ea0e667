package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/coderev/coderev-infra/pkg/utils/timer"
	fcolor "github.com/fatih/color"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// Verbs names the running and finished states of a task, e.g. "building"/"built".
type Verbs struct {
	Running string
	Done    string
}

// BuildVerbs is used for image builds.
func BuildVerbs() Verbs { return Verbs{Running: "building", Done: "built"} }

// LoadVerbs is used for loading images into cluster nodes.
func LoadVerbs() Verbs { return Verbs{Running: "loading", Done: "loaded"} }

// Task is one unit of parallel work shown as a single status line.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type taskState int

const (
	statePending taskState = iota
	stateRunning
	stateDone
	stateFailed
)

const spinnerInterval = 100 * time.Millisecond

func spinnerFrames() []string {
	return []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
}

// TaskGroup runs tasks concurrently under one title.
//
// On a terminal every task owns a line that is redrawn in place with a spinner. On any
// other writer (pipes, CI logs) only state transitions are printed:
//
//	📦 Building images...
//	► coderev-api building
//	► coderev-worker building
//	✔ coderev-worker built
//	✔ coderev-api built
type TaskGroup struct {
	title string
	emoji string
	verbs Verbs
	out   io.Writer
	timer timer.Timer
	tty   bool
	limit int

	mu     sync.Mutex
	order  []string
	states map[string]taskState
	frame  int
	lines  int
}

// TaskGroupOption configures a TaskGroup.
type TaskGroupOption func(*TaskGroup)

// WithVerbs sets the state labels.
func WithVerbs(verbs Verbs) TaskGroupOption {
	return func(g *TaskGroup) { g.verbs = verbs }
}

// WithTimer prints a timing block after all tasks succeed.
func WithTimer(tmr timer.Timer) TaskGroupOption {
	return func(g *TaskGroup) { g.timer = tmr }
}

// WithLimit caps the number of tasks running at once. Zero means no cap.
func WithLimit(limit int) TaskGroupOption {
	return func(g *TaskGroup) { g.limit = limit }
}

// NewTaskGroup returns a group writing to out (os.Stdout when nil).
func NewTaskGroup(title, emoji string, out io.Writer, opts ...TaskGroupOption) *TaskGroup {
	if out == nil {
		out = os.Stdout
	}

	if emoji == "" {
		emoji = "►"
	}

	group := &TaskGroup{
		title:  title,
		emoji:  emoji,
		verbs:  Verbs{Running: "running", Done: "done"},
		out:    out,
		states: map[string]taskState{},
	}

	if file, ok := out.(*os.File); ok {
		group.tty = term.IsTerminal(int(file.Fd()))
	}

	for _, opt := range opts {
		opt(group)
	}

	return group
}

// Run executes tasks and waits for all of them. The first failure cancels the context
// passed to the others and is returned prefixed with the task name.
func (g *TaskGroup) Run(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	for _, task := range tasks {
		g.order = append(g.order, task.Name)
		g.states[task.Name] = statePending
	}

	if g.timer != nil {
		g.timer.NewStage()
	}

	_, _ = fmt.Fprintf(g.out, "%s %s...\n", g.emoji, g.title)

	var stop func()
	if g.tty {
		g.draw(false)
		stop = g.spin()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if g.limit > 0 {
		eg.SetLimit(g.limit)
	}

	for _, task := range tasks {
		eg.Go(func() error {
			g.transition(task.Name, stateRunning)

			err := task.Run(egCtx)
			if err != nil {
				g.transition(task.Name, stateFailed)

				return fmt.Errorf("%s: %w", task.Name, err)
			}

			g.transition(task.Name, stateDone)

			return nil
		})
	}

	err := eg.Wait()

	if stop != nil {
		stop()
		g.draw(true)
	}

	if err != nil {
		return err
	}

	if g.timer != nil {
		writeTiming(g.out, g.timer)
	}

	return nil
}

func (g *TaskGroup) transition(name string, state taskState) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.states[name] = state

	if g.tty {
		return
	}

	switch state {
	case stateRunning:
		_, _ = fmt.Fprintf(g.out, "► %s %s\n", name, g.verbs.Running)
	case stateDone:
		_, _ = fcolor.New(fcolor.FgGreen).Fprintf(g.out, "✔ %s %s\n", name, g.verbs.Done)
	case stateFailed:
		_, _ = fcolor.New(fcolor.FgRed).Fprintf(g.out, "✗ %s failed\n", name)
	case statePending:
	}
}

func (g *TaskGroup) spin() func() {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				g.mu.Lock()
				g.frame = (g.frame + 1) % len(spinnerFrames())
				g.mu.Unlock()
				g.draw(true)
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func (g *TaskGroup) draw(redraw bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if redraw && g.lines > 0 {
		_, _ = fmt.Fprintf(g.out, "\033[%dA", g.lines)
	}

	for _, name := range g.order {
		_, _ = fmt.Fprintf(g.out, "\033[K%s\n", g.line(name))
	}

	g.lines = len(g.order)
}

func (g *TaskGroup) line(name string) string {
	switch g.states[name] {
	case stateRunning:
		frame := spinnerFrames()[g.frame]

		return fcolor.New(fcolor.FgCyan).Sprintf("%s %s %s", frame, name, g.verbs.Running)
	case stateDone:
		return fcolor.New(fcolor.FgGreen).Sprintf("✔ %s %s", name, g.verbs.Done)
	case stateFailed:
		return fcolor.New(fcolor.FgRed).Sprintf("✗ %s failed", name)
	case statePending:
		return fcolor.New(fcolor.FgHiBlack).Sprintf("○ %s pending", name)
	}

	return name
}
