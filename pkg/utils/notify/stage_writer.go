package notify

import (
	"fmt"
	"io"
	"sync"
	"unicode"
	"unicode/utf8"
)

// StageWriter inserts a blank line before every title line except the first one written.
// A title line is one that starts with a pictographic emoji; the message symbols of this
// package never count as titles.
//
//	out := notify.NewStageWriter(cmd.OutOrStdout())
//	cmd.SetOut(out)
type StageWriter struct {
	mu      sync.Mutex
	target  io.Writer
	written bool
}

// NewStageWriter wraps target.
func NewStageWriter(target io.Writer) *StageWriter {
	return &StageWriter{target: target}
}

// Write implements io.Writer.
func (w *StageWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(data) == 0 {
		return 0, nil
	}

	if w.written && isTitle(data) {
		if _, err := w.target.Write([]byte{'\n'}); err != nil {
			return 0, fmt.Errorf("write stage separator: %w", err)
		}
	}

	n, err := w.target.Write(data)
	if n > 0 {
		w.written = true
	}

	if err != nil {
		return n, fmt.Errorf("write stage output: %w", err)
	}

	return n, nil
}

func isTitle(data []byte) bool {
	first, _ := utf8.DecodeRune(data)
	if first == utf8.RuneError {
		return false
	}

	switch first {
	case '►', '✔', '✗', '⚠', 'ℹ', '✚', '⏲', '○':
		return false
	}

	return unicode.Is(unicode.So, first)
}
