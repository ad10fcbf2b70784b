package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the atelier banner to w, colored when the output supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"        _       _ _           ", "#f59e0b"},
		{"   __ _| |_ ___| (_) ___ _ __ ", "#f97316"},
		{"  / _` | __/ _ \\ | |/ _ \\ '__|", "#ef4444"},
		{" | (_| | ||  __/ | |  __/ |   ", "#ec4899"},
		{"  \\__,_|\\__\\___|_|_|\\___|_|   ", "#d946ef"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
