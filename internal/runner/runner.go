// Package runner applies the balancing engine to table files on disk.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fsmiamoto/rebalance/internal/balance"
	"github.com/fsmiamoto/rebalance/internal/classify"
	"github.com/fsmiamoto/rebalance/internal/config"
	"github.com/fsmiamoto/rebalance/internal/eventlog"
	"github.com/fsmiamoto/rebalance/internal/record"
	"github.com/fsmiamoto/rebalance/internal/runstore"
)

// Status describes the final outcome of a run.
type Status string

const (
	StatusRunning             Status = "running"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusInterrupted         Status = "interrupted"
	StatusFailed              Status = "failed"
)

// Mode selects between one file and a directory walk.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeBatch  Mode = "batch"
)

const skipHint = "no folder or file name in the path starts with a known prefix (prefixes match at the start of a name, not inside it); use --mode 2|3 or --profile to force processing"

// Config holds the parameters for a single run.
type Config struct {
	Runtime *config.Runtime
	Mode    Mode
	Target  string // file in single mode, root directory in batch mode
	Forced  *balance.Profile
	DryRun  bool
	Workers int
	RunsDir string

	EventChan chan<- Event // optional: send events to TUI
	Logger    *slog.Logger
	Now       func() time.Time
}

// Result is the summary returned after the run finishes.
type Result struct {
	RunID     string
	RunDir    string
	Status    Status
	Stats     runstore.Stats
	StartedAt time.Time
	EndedAt   time.Time
}

type runner struct {
	cfg       Config
	runID     string
	log       *slog.Logger
	artifacts *runstore.Artifacts

	mu    sync.Mutex
	stats runstore.Stats
}

// Run processes cfg.Target and records every change and overflow in a new
// run directory. Per-file failures do not stop the run; the returned error
// is non-nil only when the run could not be set up or the walk failed.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	result := Result{Status: StatusFailed, StartedAt: cfg.Now()}

	if cfg.Runtime == nil {
		return result, errors.New("runner: runtime configuration is required")
	}
	if cfg.Target == "" {
		return result, errors.New("runner: target is required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeBatch
	}

	runID, runDir, err := runstore.CreateRunDir(cfg.RunsDir, result.StartedAt)
	if err != nil {
		return result, err
	}
	result.RunID, result.RunDir = runID, runDir

	artifacts, err := runstore.OpenArtifacts(runDir)
	if err != nil {
		return result, err
	}

	r := &runner{
		cfg:       cfg,
		runID:     runID,
		log:       cfg.Logger.With("run_id", runID),
		artifacts: artifacts,
	}
	r.log.Info("run_started", "mode", cfg.Mode, "target", cfg.Target, "workers", cfg.Workers, "dry_run", cfg.DryRun, "forced_profile", forcedName(cfg.Forced))
	r.send(Event{Type: EventRunStarted, File: cfg.Target})

	var runErr error
	switch cfg.Mode {
	case ModeSingle:
		r.processFile(ctx, cfg.Target)
	default:
		runErr = r.walk(ctx, cfg.Target)
	}

	result.Stats = r.snapshot()
	result.EndedAt = cfg.Now()
	switch {
	case ctx.Err() != nil:
		result.Status = StatusInterrupted
		runErr = nil
	case runErr != nil:
		result.Status = StatusFailed
	case result.Stats.FileErrors > 0:
		result.Status = StatusCompletedWithErrors
	default:
		result.Status = StatusCompleted
	}

	meta := runstore.Meta{
		RunID:         runID,
		StartedAt:     result.StartedAt,
		EndedAt:       result.EndedAt,
		Status:        string(result.Status),
		Mode:          string(cfg.Mode),
		Target:        cfg.Target,
		ForcedProfile: forcedName(cfg.Forced),
		DryRun:        cfg.DryRun,
		Workers:       cfg.Workers,
		Stats:         result.Stats,
		EventsCount:   artifacts.EventsCount(),
	}
	if err := runstore.WriteMeta(runDir, meta); err != nil {
		r.log.Warn("meta_write_failed", "error", err)
	}
	if err := artifacts.Close(); err != nil {
		r.log.Warn("artifacts_close_failed", "error", err)
	}

	r.log.Info("run_finished", "status", result.Status,
		"files_modified", result.Stats.FilesModified,
		"changes", result.Stats.Changes,
		"overflows", result.Stats.Overflows,
		"file_errors", result.Stats.FileErrors)
	r.send(Event{Type: EventRunFinished, Status: result.Status})
	return result, runErr
}

// walk visits every file under root and feeds the candidates to a bounded
// worker pool. Only files whose parent folder name starts with a known
// prefix are candidates.
func (r *runner) walk(ctx context.Context, root string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	classifier := r.cfg.Runtime.Classifier
	ext := r.cfg.Runtime.Config.Extension

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := gctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			r.fileError(path, "", fmt.Errorf("walk: %w", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		if !classifier.WantsDir(filepath.Base(filepath.Dir(path))) {
			return nil
		}
		g.Go(func() error {
			r.processFile(gctx, path)
			return nil
		})
		return nil
	})

	waitErr := g.Wait()
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return fmt.Errorf("scan %s: %w", root, walkErr)
	}
	return waitErr
}

// processFile balances every target field of one file. Failures are
// recorded and never returned.
func (r *runner) processFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	r.update(func(s *runstore.Stats) { s.FilesScanned++ })
	r.send(Event{Type: EventFileStarted, File: path})

	profile, rule, ok := r.profileFor(path)
	if !ok {
		msg := "no profile matches path"
		if r.cfg.Mode == ModeSingle {
			msg = skipHint
		}
		r.update(func(s *runstore.Stats) { s.FilesSkipped++ })
		r.log.Debug("file_skipped", "file", path, "reason", msg)
		r.record(eventlog.Event{Kind: eventlog.KindFileSkipped, File: path, Message: msg})
		return
	}
	r.update(func(s *runstore.Stats) { s.FilesMatched++ })

	rtCfg := r.cfg.Runtime.Config
	doc, err := record.Load(path, rtCfg.RowsKey)
	if err != nil {
		r.fileError(path, profile.Name, err)
		return
	}

	modified := false
	for _, row := range doc.Rows() {
		text, ok := row.String(rtCfg.TargetKey)
		if !ok || text == "" {
			continue
		}
		r.update(func(s *runstore.Stats) { s.RowsSeen++ })

		res := balance.Process(text, profile)
		id := row.ID(rtCfg.IDKey)

		if res.Overflow {
			r.update(func(s *runstore.Stats) { s.Overflows++ })
			r.log.Warn("row_overflow", "file", path, "row_id", id, "width", res.OverflowWidth, "limit", profile.Ceiling)
			r.record(eventlog.Event{
				Kind: eventlog.KindOverflow, File: path, RowID: id, Profile: profile.Name, Rule: string(rule),
				New: res.Text, Width: res.OverflowWidth, Limit: profile.Ceiling,
			})
		}

		if res.Changed(text) {
			row.Set(rtCfg.TargetKey, res.Text)
			modified = true
			r.update(func(s *runstore.Stats) { s.Changes++ })
			r.record(eventlog.Event{
				Kind: eventlog.KindChange, File: path, RowID: id, Profile: profile.Name, Rule: string(rule),
				Old: text, New: res.Text, Lines: len(res.Lines),
				Width: profile.Metric.Width(balance.Flatten(text)),
			})
		}
	}

	if !modified {
		return
	}
	if r.cfg.DryRun {
		r.update(func(s *runstore.Stats) { s.FilesModified++ })
		r.log.Debug("file_not_written", "file", path, "reason", "dry run")
		return
	}
	if err := doc.Save(path); err != nil {
		r.fileError(path, profile.Name, err)
		return
	}
	r.update(func(s *runstore.Stats) { s.FilesModified++ })
	r.log.Info("file_written", "file", path, "profile", profile.Name)
	r.record(eventlog.Event{Kind: eventlog.KindFileWritten, File: path, Profile: profile.Name})
}

func (r *runner) profileFor(path string) (balance.Profile, classify.Rule, bool) {
	if r.cfg.Forced != nil {
		return *r.cfg.Forced, classify.RuleForced, true
	}
	m, ok := r.cfg.Runtime.Classifier.Classify(path)
	if !ok {
		return balance.Profile{}, "", false
	}
	return m.Profile, m.Rule, true
}

func (r *runner) fileError(path, profile string, err error) {
	r.update(func(s *runstore.Stats) { s.FileErrors++ })
	r.log.Error("file_error", "file", path, "error", err)
	r.record(eventlog.Event{Kind: eventlog.KindFileError, File: path, Profile: profile, Message: err.Error()})
}

// record persists ev and forwards it to the live view.
func (r *runner) record(ev eventlog.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.cfg.Now().UTC()
	}
	if err := r.artifacts.Record(ev); err != nil {
		r.log.Warn("event_write_failed", "kind", ev.Kind, "file", ev.File, "error", err)
	}
	r.send(Event{Type: EventRecord, File: ev.File, Record: ev})
}

func (r *runner) update(fn func(*runstore.Stats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

func (r *runner) snapshot() runstore.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// send forwards an event to the TUI channel if configured (non-blocking).
func (r *runner) send(ev Event) {
	if r.cfg.EventChan == nil {
		return
	}
	ev.RunID = r.runID
	ev.Stats = r.snapshot()
	select {
	case r.cfg.EventChan <- ev:
	default:
	}
}

func forcedName(p *balance.Profile) string {
	if p == nil {
		return ""
	}
	return p.Name
}
