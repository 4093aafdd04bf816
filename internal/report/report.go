package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/fsmiamoto/rebalance/internal/eventlog"
	"github.com/fsmiamoto/rebalance/internal/runstore"
)

// MaxOverflowRows caps the overflow table; the full list is in overflow.log.
const MaxOverflowRows = 50

type profileRow struct {
	Name      string
	Changes   int
	Overflows int
}

type reportData struct {
	Meta          runstore.Meta
	Duration      string
	Profiles      []profileRow
	Overflows     []eventlog.Event
	MoreOverflows int
	Errors        []eventlog.Event
}

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"code": func(s string) string { return "`" + strings.ReplaceAll(s, "`", "'") + "`" },
}).Parse(reportTemplate))

// Build renders the markdown report for a finished run.
func Build(meta runstore.Meta, events []eventlog.Event) (string, error) {
	data := reportData{Meta: meta, Duration: duration(meta)}

	byProfile := make(map[string]*profileRow)
	row := func(name string) *profileRow {
		if name == "" {
			name = "(none)"
		}
		r, ok := byProfile[name]
		if !ok {
			r = &profileRow{Name: name}
			byProfile[name] = r
		}
		return r
	}

	for _, ev := range events {
		switch ev.Kind {
		case eventlog.KindChange:
			row(ev.Profile).Changes++
		case eventlog.KindOverflow:
			row(ev.Profile).Overflows++
			if len(data.Overflows) < MaxOverflowRows {
				data.Overflows = append(data.Overflows, ev)
			} else {
				data.MoreOverflows++
			}
		case eventlog.KindFileError:
			data.Errors = append(data.Errors, ev)
		}
	}
	for _, r := range byProfile {
		data.Profiles = append(data.Profiles, *r)
	}
	sort.Slice(data.Profiles, func(i, j int) bool { return data.Profiles[i].Name < data.Profiles[j].Name })

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing report template: %w", err)
	}
	return buf.String(), nil
}

// Render styles markdown for a terminal of the given width. Plain markdown
// is returned when styled is false or the renderer fails.
func Render(markdown string, width int, styled bool) string {
	if !styled || markdown == "" {
		return markdown
	}
	if width < 20 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

func duration(meta runstore.Meta) string {
	if meta.EndedAt.IsZero() || meta.EndedAt.Before(meta.StartedAt) {
		return "unknown"
	}
	return meta.EndedAt.Sub(meta.StartedAt).Round(time.Millisecond).String()
}
