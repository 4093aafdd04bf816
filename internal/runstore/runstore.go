package runstore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/fsmiamoto/rebalance/internal/eventlog"
)

const (
	ChangesLog  = "changes.log"
	OverflowLog = "overflow.log"
	EventsFile  = "events.jsonl"
	MetaFile    = "meta.json"
)

var separator = strings.Repeat("-", 60)

func CreateRunDir(runsRoot string, now time.Time) (runID string, runDir string, err error) {
	if runsRoot == "" {
		return "", "", fmt.Errorf("runs root cannot be empty")
	}
	if err := os.MkdirAll(runsRoot, 0o755); err != nil {
		return "", "", fmt.Errorf("create runs root: %w", err)
	}

	id, err := newID(now)
	if err != nil {
		return "", "", err
	}
	dir := filepath.Join(runsRoot, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create run directory: %w", err)
	}
	return id, dir, nil
}

// Artifacts owns the append-only files of one run. Record may be called
// from several workers.
type Artifacts struct {
	mu           sync.Mutex
	runDir       string
	eventsFile   *os.File
	changesFile  *os.File
	overflowFile *os.File
	eventsCount  int
}

func OpenArtifacts(runDir string) (*Artifacts, error) {
	a := &Artifacts{runDir: runDir}
	open := func(name string) (*os.File, error) {
		return os.OpenFile(filepath.Join(runDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}

	var err error
	if a.eventsFile, err = open(EventsFile); err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	if a.changesFile, err = open(ChangesLog); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open change log: %w", err)
	}
	if a.overflowFile, err = open(OverflowLog); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open overflow log: %w", err)
	}
	return a, nil
}

func (a *Artifacts) Dir() string {
	return a.runDir
}

func (a *Artifacts) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for _, f := range []*os.File{a.eventsFile, a.changesFile, a.overflowFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Record appends ev to events.jsonl and, for changes and overflows, to the
// matching human-readable log.
func (a *Artifacts) Record(ev eventlog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := eventlog.Encode(a.eventsFile, ev); err != nil {
		return err
	}
	a.eventsCount++

	switch ev.Kind {
	case eventlog.KindChange:
		if err := writeChange(a.changesFile, ev); err != nil {
			return fmt.Errorf("write change log: %w", err)
		}
	case eventlog.KindOverflow:
		if err := writeOverflow(a.overflowFile, ev); err != nil {
			return fmt.Errorf("write overflow log: %w", err)
		}
	}
	return nil
}

func (a *Artifacts) EventsCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eventsCount
}

// writeChange renders a change entry. ev.Width is the width of the old
// text once flattened and ev.Lines the line count of the new text.
func writeChange(f *os.File, ev eventlog.Event) error {
	var b strings.Builder
	fmt.Fprintf(&b, "FILE: %s | ID: %s\n", ev.File, ev.RowID)
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "OLD (Vis Len: %d):\n%s\n", ev.Width, ev.Old)
	fmt.Fprintf(&b, "\nNEW (%d lines):\n%s\n", ev.Lines, ev.New)
	b.WriteString(separator + "\n\n")
	_, err := f.WriteString(b.String())
	return err
}

func writeOverflow(f *os.File, ev eventlog.Event) error {
	var b strings.Builder
	fmt.Fprintf(&b, "OVERFLOW: %s | ID: %s\n", ev.File, ev.RowID)
	fmt.Fprintf(&b, "Visual Width: %d (Limit: %d)\n", ev.Width, ev.Limit)
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "%s\n", ev.New)
	b.WriteString(separator + "\n\n")
	_, err := f.WriteString(b.String())
	return err
}

type Stats struct {
	FilesScanned  int `json:"files_scanned"`
	FilesMatched  int `json:"files_matched"`
	FilesSkipped  int `json:"files_skipped"`
	FilesModified int `json:"files_modified"`
	FileErrors    int `json:"file_errors"`
	RowsSeen      int `json:"rows_seen"`
	Changes       int `json:"changes"`
	Overflows     int `json:"overflows"`
}

type Meta struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at,omitempty"`
	Status        string    `json:"status"`
	Mode          string    `json:"mode"`
	Target        string    `json:"target"`
	ForcedProfile string    `json:"forced_profile,omitempty"`
	DryRun        bool      `json:"dry_run"`
	Workers       int       `json:"workers"`
	Stats         Stats     `json:"stats"`
	EventsCount   int       `json:"events_count"`
}

func WriteMeta(runDir string, meta Meta) error {
	path := filepath.Join(runDir, MetaFile)
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

func ReadMeta(runDir string) (Meta, error) {
	path := filepath.Join(runDir, MetaFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, fmt.Errorf("read meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(b, &meta); err != nil {
		return Meta{}, fmt.Errorf("parse meta: %w", err)
	}
	return meta, nil
}

func ReadEvents(runDir string) ([]eventlog.Event, error) {
	f, err := os.Open(filepath.Join(runDir, EventsFile))
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()
	return eventlog.ReadAll(f)
}

// newID returns a run id that sorts by creation time.
func newID(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return now.UTC().Format("20060102-150405") + "-" + hex.EncodeToString(buf), nil
}
