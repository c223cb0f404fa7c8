package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Tandem ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _____              _                ", "#818cf8"},
		{" |_   _|_ _ _ __  __| | ___ _ __ ___  ", "#a78bfa"},
		{"   | |/ _` | '_ \\/ _` |/ _ \\ '_ ` _ \\ ", "#c084fc"},
		{"   | | (_| | | | | (_| |  __/ | | | | |", "#e879f9"},
		{"   |_|\\__,_|_| |_|\\__,_|\\___|_| |_| |_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// RoleLabel colors an author label for transcript output.
func RoleLabel(label string) string {
	p := termenv.ColorProfile()
	color := "#94a3b8"
	switch label {
	case "user":
		color = "#38bdf8"
	case "researcher":
		color = "#a78bfa"
	case "chart_generator":
		color = "#f472b6"
	}
	return termenv.String(label).Foreground(p.Color(color)).Bold().String()
}
