package report

import (
	"strings"
	"testing"
	"time"

	"github.com/fsmiamoto/rebalance/internal/eventlog"
	"github.com/fsmiamoto/rebalance/internal/runstore"
)

func sampleMeta() runstore.Meta {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return runstore.Meta{
		RunID:     "20260301-090000-abcd1234",
		StartedAt: start,
		EndedAt:   start.Add(1500 * time.Millisecond),
		Status:    "completed_with_errors",
		Mode:      "batch",
		Target:    "/data/UnpackedBDAT",
		Stats:     runstore.Stats{FilesScanned: 3, FilesModified: 1, Changes: 2, Overflows: 1, FileErrors: 1},
	}
}

func TestBuild(t *testing.T) {
	events := []eventlog.Event{
		{Kind: eventlog.KindChange, Profile: "standard", File: "a.json", RowID: "1"},
		{Kind: eventlog.KindChange, Profile: "cinematic", File: "b.json", RowID: "2"},
		{Kind: eventlog.KindOverflow, Profile: "cinematic", File: "b.json", RowID: "3", Width: 80, Limit: 75},
		{Kind: eventlog.KindFileError, File: "bad.json", Message: "parse record file: boom"},
		{Kind: eventlog.KindFileSkipped, File: "c.json"},
	}

	got, err := Build(sampleMeta(), events)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	for _, want := range []string{
		"# Run 20260301-090000-abcd1234",
		"| Status | completed_with_errors |",
		"| Duration | 1.5s |",
		"| Rows updated | 2 |",
		"| cinematic | 1 | 1 |",
		"| standard | 1 | 0 |",
		"| `b.json` | 3 | 80 | 75 |",
		"- `bad.json`: parse record file: boom",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Dry run") || strings.Contains(got, "Forced profile") {
		t.Errorf("report has optional rows it should not:\n%s", got)
	}
	if strings.Index(got, "| cinematic |") > strings.Index(got, "| standard |") {
		t.Error("profiles not sorted")
	}
}

func TestBuildCapsOverflowTable(t *testing.T) {
	var events []eventlog.Event
	for i := 0; i < MaxOverflowRows+5; i++ {
		events = append(events, eventlog.Event{Kind: eventlog.KindOverflow, Profile: "standard", File: "a.json", Width: 60, Limit: 55})
	}
	got, err := Build(sampleMeta(), events)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if n := strings.Count(got, "| `a.json` |"); n != MaxOverflowRows {
		t.Errorf("expected %d overflow rows, got %d", MaxOverflowRows, n)
	}
	if !strings.Contains(got, "...and 5 more") {
		t.Errorf("missing overflow remainder:\n%s", got)
	}
}

func TestBuildEmptyRun(t *testing.T) {
	meta := sampleMeta()
	meta.EndedAt = time.Time{}
	meta.DryRun = true
	meta.ForcedProfile = "standard"

	got, err := Build(meta, nil)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for _, want := range []string{"| Duration | unknown |", "| Dry run | yes", "| Forced profile | standard |"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{"## By profile", "## Overflows", "## Errors"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("empty run should not have %q", unwanted)
		}
	}
}

func TestRenderPlain(t *testing.T) {
	md := "# Title\n\ntext"
	if got := Render(md, 80, false); got != md {
		t.Fatalf("expected plain markdown, got %q", got)
	}
}

func TestRenderStyled(t *testing.T) {
	got := Render("# Title\n\nsome text", 60, true)
	if !strings.Contains(got, "some text") {
		t.Fatalf("rendered output lost content: %q", got)
	}
}
