// Package tui implements the Bubble Tea terminal UI for rebalance: a live
// progress view during a run and a read-only viewer for past runs.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fsmiamoto/rebalance/internal/eventlog"
	"github.com/fsmiamoto/rebalance/internal/runner"
	"github.com/fsmiamoto/rebalance/internal/runstore"
)

type Mode int

const (
	ModeLive Mode = iota
	ModeView
)

type Focus int

const (
	FocusStream Focus = iota
	FocusDetails
)

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusSuccess
	statusWarn
	statusError
)

// maxStreamEvents bounds memory during large runs; older events remain in
// events.jsonl.
const maxStreamEvents = 2000

// Header describes the run shown at the top of the screen.
type Header struct {
	RunID   string
	Target  string
	Profile string // forced profile, if any
	DryRun  bool
}

type ProgressMessage struct {
	Event runner.Event
}

type RunFinishedMessage struct {
	Result runner.Result
	Err    error
}

type Model struct {
	mode         Mode
	header       Header
	status       string
	stats        runstore.Stats
	current      string
	events       []eventlog.Event
	overflowOnly bool
	selected     int
	detailPos    int
	focus        Focus

	width  int
	height int

	running     bool
	cancel      context.CancelFunc
	statusLine  string
	statusLevel statusLevel
}

func NewLiveModel(h Header, cancel context.CancelFunc) *Model {
	return &Model{
		mode:        ModeLive,
		header:      h,
		status:      string(runner.StatusRunning),
		events:      make([]eventlog.Event, 0, 128),
		running:     true,
		cancel:      cancel,
		statusLine:  "Running... Ctrl+C to interrupt.",
		statusLevel: statusInfo,
	}
}

func NewViewModel(meta runstore.Meta, events []eventlog.Event) *Model {
	return &Model{
		mode:        ModeView,
		header:      Header{RunID: meta.RunID, Target: meta.Target, Profile: meta.ForcedProfile, DryRun: meta.DryRun},
		status:      meta.Status,
		stats:       meta.Stats,
		events:      events,
		statusLine:  "Read-only viewer. f filters overflows, q quits.",
		statusLevel: statusInfo,
	}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.height < 8 {
			m.height = 8
		}
		return m, nil
	case ProgressMessage:
		m.applyProgress(msg.Event)
		return m, nil
	case RunFinishedMessage:
		m.running = false
		m.current = ""
		if msg.Err != nil {
			m.status = string(runner.StatusFailed)
			m.statusLine = fmt.Sprintf("Run failed: %v (q to quit)", msg.Err)
			m.statusLevel = statusError
		} else {
			m.status = string(msg.Result.Status)
			m.stats = msg.Result.Stats
			m.statusLine = fmt.Sprintf("Run finished with status: %s (q to quit)", msg.Result.Status)
			m.statusLevel = runStatusLevel(m.status)
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.mode == ModeLive && m.running {
				if m.cancel != nil {
					m.cancel()
				}
				m.statusLine = "Interrupt requested, finishing files in progress..."
				m.statusLevel = statusWarn
				return m, nil
			}
			return m, tea.Quit
		case "q":
			if m.mode == ModeLive && m.running {
				m.statusLine = "Run active. Use Ctrl+C to interrupt first."
				m.statusLevel = statusWarn
				return m, nil
			}
			return m, tea.Quit
		case "tab":
			if m.focus == FocusStream {
				m.focus = FocusDetails
			} else {
				m.focus = FocusStream
			}
		case "f":
			m.overflowOnly = !m.overflowOnly
			m.selected, m.detailPos = 0, 0
		case "g":
			if m.focus == FocusStream {
				m.selected = 0
			} else {
				m.detailPos = 0
			}
		case "G":
			if m.focus == FocusStream {
				m.selected = len(m.visible()) - 1
			} else {
				m.detailPos = len(m.detailLines(m.detailWidth()))
			}
		case "j", "down":
			if m.focus == FocusStream {
				m.selected++
				m.detailPos = 0
			} else {
				m.detailPos++
			}
		case "k", "up":
			if m.focus == FocusStream {
				m.selected--
				m.detailPos = 0
			} else {
				m.detailPos--
			}
		case "ctrl+d":
			m.detailPos += m.bodyHeight() / 2
		case "ctrl+u":
			m.detailPos -= m.bodyHeight() / 2
		}
		m.clamp()
		return m, nil
	}

	return m, nil
}

func (m *Model) applyProgress(ev runner.Event) {
	m.stats = ev.Stats
	switch ev.Type {
	case runner.EventRunStarted:
		if m.header.RunID == "" {
			m.header.RunID = ev.RunID
		}
	case runner.EventFileStarted:
		m.current = ev.File
	case runner.EventRecord:
		following := m.selected >= len(m.visible())-1
		m.events = append(m.events, ev.Record)
		if len(m.events) > maxStreamEvents {
			m.events = m.events[len(m.events)-maxStreamEvents:]
		}
		if following {
			m.selected = len(m.visible()) - 1
		}
	case runner.EventRunFinished:
		m.status = string(ev.Status)
	}
	m.clamp()
}

// visible returns the events shown in the stream pane.
func (m *Model) visible() []eventlog.Event {
	if !m.overflowOnly {
		return m.events
	}
	out := make([]eventlog.Event, 0, len(m.events))
	for _, ev := range m.events {
		if ev.Kind == eventlog.KindOverflow {
			out = append(out, ev)
		}
	}
	return out
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading TUI..."
	}

	title := fmt.Sprintf("rebalance run=%s status=%s", m.header.RunID, m.status)
	header := fit(headerStyleForRunStatus(m.status).Render(title), m.width)
	counters := fit(m.renderCounters(), m.width)

	streamW := max(24, m.width*2/5)
	detailW := m.width - streamW - 4
	bodyH := m.bodyHeight()
	stream := m.renderStream(streamW, bodyH)
	details := m.renderDetails(detailW, bodyH)
	body := lipgloss.JoinHorizontal(lipgloss.Top, stream, details)

	status := fit(statusStyleFor(m.statusLevel).Render(m.statusLine), m.width)
	return lipgloss.JoinVertical(lipgloss.Left, header, counters, body, status)
}

func (m *Model) renderCounters() string {
	item := func(label string, v int) string {
		return counterStyle.Render(label+" ") + counterValueStyle.Render(fmt.Sprint(v))
	}
	parts := []string{
		item("files", m.stats.FilesScanned),
		item("modified", m.stats.FilesModified),
		item("changes", m.stats.Changes),
		item("overflows", m.stats.Overflows),
		item("errors", m.stats.FileErrors),
	}
	if m.header.Profile != "" {
		parts = append(parts, titleStyle.Render("forced "+m.header.Profile))
	}
	if m.header.DryRun {
		parts = append(parts, titleStyle.Render("dry run"))
	}
	if m.current != "" {
		parts = append(parts, counterStyle.Render("· "+shortPath(m.current)))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderStream(w, h int) string {
	style := lipgloss.NewStyle().Width(w).Height(h).Border(lipgloss.NormalBorder()).Padding(0, 1)
	if m.focus == FocusStream {
		style = style.BorderForeground(focusedBorderColor)
	}

	events := m.visible()
	if len(events) == 0 {
		if m.overflowOnly {
			return style.Render("No overflows.")
		}
		return style.Render("No events yet.")
	}

	start := m.selected - h/2
	if start < 0 {
		start = 0
	}
	end := start + h
	if end > len(events) {
		end = len(events)
		start = max(0, end-h)
	}

	inner := w - 2
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		prefix := "  "
		if i == m.selected {
			prefix = "> "
		}
		line := fit(prefix+summarizeEvent(events[i]), inner)
		switch {
		case i == m.selected && isErrorEvent(events[i]):
			line = lipgloss.NewStyle().Bold(true).Foreground(colorError).Render(line)
		case i == m.selected:
			line = lipgloss.NewStyle().Bold(true).Foreground(colorSelected).Render(line)
		default:
			line = kindStyle(string(events[i].Kind)).Render(line)
		}
		lines = append(lines, line)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderDetails(w, h int) string {
	style := lipgloss.NewStyle().Width(w).Height(h).Border(lipgloss.NormalBorder()).Padding(0, 1)
	if m.focus == FocusDetails {
		style = style.BorderForeground(focusedBorderColor)
	}
	lines := m.detailLines(w - 2)
	if len(lines) == 0 {
		return style.Render("No event selected.")
	}

	if m.detailPos+h > len(lines) {
		m.detailPos = max(0, len(lines)-h)
	}
	end := min(len(lines), m.detailPos+h)
	return style.Render(strings.Join(lines[m.detailPos:end], "\n"))
}

func (m *Model) detailLines(width int) []string {
	events := m.visible()
	if len(events) == 0 || m.selected >= len(events) {
		return nil
	}
	return WrapText(detailText(events[m.selected]), width)
}

func (m *Model) clamp() {
	n := len(m.visible())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.detailPos < 0 {
		m.detailPos = 0
	}
	if lines := len(m.detailLines(m.detailWidth())); lines > 0 && m.detailPos >= lines {
		m.detailPos = lines - 1
	}
}

func (m *Model) bodyHeight() int {
	h := m.height - 5
	if h < 3 {
		return 3
	}
	return h
}

func (m *Model) detailWidth() int {
	return m.width - max(24, m.width*2/5) - 6
}

func runStatusLevel(status string) statusLevel {
	switch status {
	case string(runner.StatusCompleted):
		return statusSuccess
	case string(runner.StatusInterrupted), string(runner.StatusCompletedWithErrors):
		return statusWarn
	case string(runner.StatusFailed):
		return statusError
	default:
		return statusInfo
	}
}

// RunLive shows live progress while work runs. work receives the channel
// it must hand to the runner. cancel is called when the user interrupts.
func RunLive(h Header, cancel context.CancelFunc, work func(events chan<- runner.Event) (runner.Result, error)) (runner.Result, error) {
	model := NewLiveModel(h, cancel)
	p := tea.NewProgram(model, tea.WithAltScreen())

	type outcome struct {
		result runner.Result
		err    error
	}
	done := make(chan outcome, 1)
	events := make(chan runner.Event, 256)

	go func() {
		res, err := work(events)
		close(events)
		done <- outcome{res, err}
	}()

	finished := make(chan outcome, 1)
	go func() {
		for ev := range events {
			p.Send(ProgressMessage{Event: ev})
		}
		out := <-done
		finished <- out
		p.Send(RunFinishedMessage{Result: out.result, Err: out.err})
	}()

	_, runErr := p.Run()
	// The program may exit while work is still going, e.g. on a terminal
	// error; stop it before waiting.
	if cancel != nil {
		cancel()
	}
	out := <-finished
	if runErr != nil {
		return out.result, fmt.Errorf("tui: %w", runErr)
	}
	return out.result, out.err
}

// RunView opens the read-only viewer for a saved run.
func RunView(meta runstore.Meta, events []eventlog.Event) error {
	p := tea.NewProgram(NewViewModel(meta, events), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
