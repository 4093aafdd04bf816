package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsmiamoto/rebalance/internal/eventlog"
)

// summarizeEvent renders the one-line stream entry for ev.
func summarizeEvent(ev eventlog.Event) string {
	parts := []string{string(ev.Kind), shortPath(ev.File)}
	if ev.RowID != "" {
		parts = append(parts, "id="+ev.RowID)
	}
	switch ev.Kind {
	case eventlog.KindOverflow:
		parts = append(parts, fmt.Sprintf("%d/%d", ev.Width, ev.Limit))
	case eventlog.KindChange:
		parts = append(parts, fmt.Sprintf("%d lines", ev.Lines))
	case eventlog.KindFileError, eventlog.KindFileSkipped:
		if ev.Message != "" {
			parts = append(parts, ev.Message)
		}
	}
	return strings.Join(parts, " | ")
}

// detailText renders the detail pane content for ev.
func detailText(ev eventlog.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", ev.File)
	if ev.RowID != "" {
		fmt.Fprintf(&b, "row %s", ev.RowID)
		if ev.Profile != "" {
			fmt.Fprintf(&b, " · profile %s", ev.Profile)
		}
		if ev.Rule != "" {
			fmt.Fprintf(&b, " (%s)", ev.Rule)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch ev.Kind {
	case eventlog.KindChange:
		fmt.Fprintf(&b, "OLD (width %d):\n%s\n\nNEW (%d lines):\n%s", ev.Width, ev.Old, ev.Lines, ev.New)
	case eventlog.KindOverflow:
		fmt.Fprintf(&b, "Visual width %d exceeds limit %d:\n%s", ev.Width, ev.Limit, ev.New)
	default:
		if ev.Message != "" {
			b.WriteString(ev.Message)
		} else {
			b.WriteString(string(ev.Kind))
		}
	}
	return b.String()
}

func isErrorEvent(ev eventlog.Event) bool {
	return ev.Kind == eventlog.KindFileError
}

// shortPath keeps the folder and file name, which identify a table.
func shortPath(path string) string {
	if path == "" {
		return ""
	}
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return filepath.Base(path)
	}
	return dir + "/" + filepath.Base(path)
}
