package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fsmiamoto/rebalance/internal/eventlog"
	"github.com/fsmiamoto/rebalance/internal/runner"
	"github.com/fsmiamoto/rebalance/internal/runstore"
)

func TestRunStatusLevel(t *testing.T) {
	cases := []struct {
		status string
		want   statusLevel
	}{
		{status: string(runner.StatusCompleted), want: statusSuccess},
		{status: string(runner.StatusInterrupted), want: statusWarn},
		{status: string(runner.StatusCompletedWithErrors), want: statusWarn},
		{status: string(runner.StatusFailed), want: statusError},
		{status: "running", want: statusInfo},
	}

	for _, tc := range cases {
		if got := runStatusLevel(tc.status); got != tc.want {
			t.Fatalf("runStatusLevel(%q)=%v want %v", tc.status, got, tc.want)
		}
	}
}

func TestUpdateRunFinishedSetsStatusAndHighlight(t *testing.T) {
	m := NewLiveModel(Header{RunID: "run-1"}, nil)

	_, _ = m.Update(RunFinishedMessage{Result: runner.Result{Status: runner.StatusCompleted, Stats: runstore.Stats{Changes: 4}}})
	if m.status != string(runner.StatusCompleted) || m.stats.Changes != 4 {
		t.Fatalf("status not updated: %q %+v", m.status, m.stats)
	}
	if m.statusLevel != statusSuccess {
		t.Fatalf("expected success status level, got %v", m.statusLevel)
	}

	_, _ = m.Update(RunFinishedMessage{Err: errors.New("boom")})
	if m.status != string(runner.StatusFailed) || m.statusLevel != statusError {
		t.Fatalf("expected failed status, got %q level %v", m.status, m.statusLevel)
	}
}

func TestProgressFollowsNewestEvent(t *testing.T) {
	m := NewLiveModel(Header{}, nil)
	_, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	_, _ = m.Update(ProgressMessage{Event: runner.Event{Type: runner.EventRunStarted, RunID: "abc"}})
	if m.header.RunID != "abc" {
		t.Fatalf("run id not taken from first event: %q", m.header.RunID)
	}
	for i := 0; i < 3; i++ {
		_, _ = m.Update(ProgressMessage{Event: runner.Event{
			Type:   runner.EventRecord,
			Record: eventlog.Event{Kind: eventlog.KindChange, File: "/x/msg_fev01/a.json", RowID: "1"},
			Stats:  runstore.Stats{Changes: i + 1},
		}})
	}
	if m.selected != 2 || m.stats.Changes != 3 {
		t.Fatalf("selected=%d stats=%+v", m.selected, m.stats)
	}

	view := m.View()
	if !strings.Contains(view, "msg_fev01/a.json") || !strings.Contains(view, "changes") {
		t.Fatalf("view missing content:\n%s", view)
	}
}

func TestCtrlCCancelsLiveRun(t *testing.T) {
	cancelled := false
	m := NewLiveModel(Header{}, func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !cancelled || cmd != nil {
		t.Fatalf("expected cancel without quit, cancelled=%v cmd=%v", cancelled, cmd)
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd != nil {
		t.Fatal("q should not quit while running")
	}

	_, _ = m.Update(RunFinishedMessage{Result: runner.Result{Status: runner.StatusInterrupted}})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit after the run finished")
	}
}

func TestViewModelOverflowFilter(t *testing.T) {
	events := []eventlog.Event{
		{Kind: eventlog.KindChange, File: "a.json"},
		{Kind: eventlog.KindOverflow, File: "b.json", Width: 80, Limit: 75},
		{Kind: eventlog.KindChange, File: "c.json"},
	}
	m := NewViewModel(runstore.Meta{RunID: "r", Status: "completed"}, events)
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})

	got := m.visible()
	if len(got) != 1 || got[0].File != "b.json" {
		t.Fatalf("filter returned %+v", got)
	}
}

func TestSummarizeEvent(t *testing.T) {
	got := summarizeEvent(eventlog.Event{Kind: eventlog.KindOverflow, File: "/data/msg_ev01/t.json", RowID: "9", Width: 80, Limit: 75})
	if got != "overflow | msg_ev01/t.json | id=9 | 80/75" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestWrapLine(t *testing.T) {
	if got := WrapLine("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected %q", got)
	}
	got := WrapLine("あいうえお", 4)
	want := []string{"あい", "うえ", "お"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q want %q", got, want)
	}
}
