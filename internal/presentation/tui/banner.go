package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// PrintBanner writes the ruleflow banner to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Teal-to-blue gradient
	lines := []struct{ text, color string }{
		{"            _       __ _               ", "#2dd4bf"},
		{"  _ __ _  _| |___  / _| |_____ __ __   ", "#22d3ee"},
		{" | '_| || | / -_)|  _| / _ \\ V  V /   ", "#38bdf8"},
		{" |_|  \\_,_|_\\___||_| |_\\___/\\_/\\_/    ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}

// StatusBadge renders a preflight status as a short colored tag for w.
func StatusBadge(w io.Writer, status domain.CheckStatus) string {
	out := termenv.NewOutput(w)
	switch status {
	case domain.StatusPass:
		return out.String("PASS").Foreground(out.Color("#22c55e")).String()
	case domain.StatusWarn:
		return out.String("WARN").Foreground(out.Color("#eab308")).String()
	case domain.StatusFail:
		return out.String("FAIL").Foreground(out.Color("#ef4444")).Bold().String()
	default:
		return string(status)
	}
}

// ReadyLine summarizes a report in one colored line.
func ReadyLine(w io.Writer, report domain.Report) string {
	out := termenv.NewOutput(w)
	if report.Ready {
		msg := "Ready"
		if n := len(report.Warnings()); n > 0 {
			msg = fmt.Sprintf("Ready with %d warning(s)", n)
		}
		return out.String(msg).Foreground(out.Color("#22c55e")).Bold().String()
	}
	return out.String(fmt.Sprintf("Not ready: %d issue(s)", len(report.Issues))).
		Foreground(out.Color("#ef4444")).Bold().String()
}
