// Package ui holds small terminal helpers shared by the coderev commands.
package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// SetTerminalTitle sets the window title of the terminal behind w.
// Nothing is written when w is not an interactive terminal.
func SetTerminalTitle(w io.Writer, title string) {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return
	}

	WriteTitle(w, title)
}

// WriteTitle writes the OSC 0 sequence that sets both icon name and window title.
func WriteTitle(w io.Writer, title string) {
	_, _ = fmt.Fprintf(w, "\033]0;%s\007", title)
}
