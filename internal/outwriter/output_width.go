package outwriter

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// GetMaxTablePathWidth calculates the maximum width for artifact paths in table output
// based on terminal width and the fixed status columns.
func GetMaxTablePathWidth(w io.Writer) int {
	termWidth := 80 // Conservative default for narrow terminals and CI
	if f, ok := w.(*os.File); ok {
		if detected, _, err := term.GetSize(int(f.Fd())); err == nil && detected > 0 {
			termWidth = detected
		}
	}

	// Source + Status + Rows + Warnings with borders/padding
	baseWidth := 45

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 90 {
		return 90
	}
	return available
}
