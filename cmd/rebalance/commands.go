package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fsmiamoto/rebalance/internal/balance"
	"github.com/fsmiamoto/rebalance/internal/jsonfix"
	"github.com/fsmiamoto/rebalance/internal/report"
	"github.com/fsmiamoto/rebalance/internal/runner"
	"github.com/fsmiamoto/rebalance/internal/target"
	"github.com/fsmiamoto/rebalance/internal/tui"
	"github.com/fsmiamoto/rebalance/internal/viewer"
)

// balance runs the batch or single-file pass.
func (a *app) balance(ctx context.Context, useTUI bool) int {
	forced, err := a.forcedProfile()
	if err != nil {
		fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
		return exitUsage
	}

	res, err := target.Resolve(target.Input{Single: a.opts.Single, Root: a.rt.Config.RootDirectory})
	if err != nil {
		fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
		return exitFatal
	}

	rcfg := runner.Config{
		Runtime: a.rt,
		Mode:    runner.ModeBatch,
		Target:  res.Path,
		Forced:  forced,
		DryRun:  a.opts.DryRun,
		Workers: a.rt.Config.Workers,
		RunsDir: a.rt.Config.RunsDir,
		Logger:  a.log,
	}
	if res.Mode == target.ModeSingle {
		rcfg.Mode = runner.ModeSingle
	}

	var result runner.Result
	if useTUI {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		header := tui.Header{Target: res.Path, DryRun: a.opts.DryRun}
		if forced != nil {
			header.Profile = forced.Name
		}
		result, err = tui.RunLive(header, cancel, func(events chan<- runner.Event) (runner.Result, error) {
			rcfg.EventChan = events
			return runner.Run(ctx, rcfg)
		})
	} else {
		result, err = runner.Run(ctx, rcfg)
	}

	printSummary(a.std.stderr, result, a.opts.DryRun)
	if err != nil {
		fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
	}
	return exitCode(result, err)
}

func exitCode(result runner.Result, err error) int {
	switch {
	case result.Status == runner.StatusInterrupted:
		return exitInterrupted
	case err != nil || result.Status == runner.StatusFailed:
		return exitFatal
	case result.Status == runner.StatusCompletedWithErrors:
		return exitFileErrors
	default:
		return exitOK
	}
}

func printSummary(w io.Writer, r runner.Result, dryRun bool) {
	if r.RunID == "" {
		return
	}
	s := r.Stats
	fmt.Fprintf(w, "\n=== run summary ===\n")
	fmt.Fprintf(w, "run-id:     %s\n", r.RunID)
	fmt.Fprintf(w, "status:     %s\n", r.Status)
	fmt.Fprintf(w, "files:      %d scanned, %d matched, %d skipped, %d errors\n",
		s.FilesScanned, s.FilesMatched, s.FilesSkipped, s.FileErrors)
	if dryRun {
		fmt.Fprintf(w, "modified:   %d (dry run, nothing written)\n", s.FilesModified)
	} else {
		fmt.Fprintf(w, "modified:   %d\n", s.FilesModified)
	}
	fmt.Fprintf(w, "rows:       %d seen, %d changed, %d overflow\n", s.RowsSeen, s.Changes, s.Overflows)
	fmt.Fprintf(w, "artifacts:  %s\n", r.RunDir)
}

// forcedProfile returns the profile named by --mode or --profile, or nil
// when classification should decide.
func (a *app) forcedProfile() (*balance.Profile, error) {
	switch {
	case a.opts.Mode != 0:
		p, err := a.rt.ProfileForLines(a.opts.Mode)
		if err != nil {
			return nil, err
		}
		return &p, nil
	case a.opts.Profile != "":
		p, ok := a.rt.Profile(a.opts.Profile)
		if !ok {
			return nil, fmt.Errorf("unknown profile %q (known: %s)",
				a.opts.Profile, strings.Join(a.rt.ProfileNames(), ", "))
		}
		return &p, nil
	}
	return nil, nil
}

// check balances one string. Without --mode or --profile the long-form
// profile is used.
func (a *app) check() int {
	forced, err := a.forcedProfile()
	if err != nil {
		fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
		return exitUsage
	}
	p, _ := a.rt.Profile(a.rt.Config.Classify.LongForm)
	if forced != nil {
		p = *forced
	}

	text := a.opts.Text
	if a.opts.ReadStdin {
		data, err := io.ReadAll(a.std.stdin)
		if err != nil {
			fmt.Fprintf(a.std.stderr, "rebalance: read stdin: %v\n", err)
			return exitFatal
		}
		text = strings.TrimRight(string(data), "\r\n")
	}

	res := balance.Process(text, p)
	fmt.Fprintln(a.std.stdout, res.Text)
	fmt.Fprintln(a.std.stdout, "---")
	fmt.Fprintf(a.std.stdout, "profile:  %s (%s)\n", p.Name, a.rt.DisplayName(p.Name))
	fmt.Fprintf(a.std.stdout, "lines:    %d of %d\n", len(res.Lines), p.MaxLines)
	fmt.Fprintf(a.std.stdout, "width:    %d %s\n", res.Width, p.Metric)
	for i, line := range res.Lines {
		fmt.Fprintf(a.std.stdout, "line %d:   %d\n", i+1, p.Metric.Width(line))
	}
	if res.Overflow {
		fmt.Fprintf(a.std.stdout, "overflow: yes (%d > %d)\n", res.OverflowWidth, p.Ceiling)
	} else {
		fmt.Fprintf(a.std.stdout, "overflow: no (ceiling %d)\n", p.Ceiling)
	}
	return exitOK
}

// profiles prints each profile and the classification rules that select it.
func (a *app) profiles() int {
	cfg := a.rt.Config
	w := tabwriter.NewWriter(a.std.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROFILE\tNAME\tLINES\tSPLIT@2\tSPLIT@3\tCEILING\tMETRIC\tROLE")
	for _, name := range a.rt.ProfileNames() {
		p := a.rt.Profiles[name]
		role := ""
		switch name {
		case cfg.Classify.LongForm:
			role = "long-form"
		case cfg.Classify.ShortForm:
			role = "short-form"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			name, a.rt.DisplayName(name), p.MaxLines, p.SingleLineMax, p.DoubleLineMax, p.Ceiling, p.Metric, role)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
		return exitFatal
	}

	fmt.Fprintln(a.std.stdout)
	for _, name := range a.rt.ProfileNames() {
		if prefixes := cfg.Profiles[name].Prefixes; len(prefixes) > 0 {
			fmt.Fprintf(a.std.stdout, "%s prefixes: %s\n", name, strings.Join(prefixes, " "))
		}
	}
	if cfg.Classify.MixedPattern != "" {
		fmt.Fprintf(a.std.stdout, "mixed: %s with suffix %s -> %s, otherwise -> %s\n",
			cfg.Classify.MixedPattern, strings.Join(cfg.Classify.MixedSuffixes, "|"),
			cfg.Classify.LongForm, cfg.Classify.ShortForm)
	}
	return exitOK
}

// view lists past runs, or renders the report of one run.
func (a *app) view() int {
	runsDir := a.rt.Config.RunsDir
	if a.opts.ViewRunID == "" {
		runs, err := viewer.ListRuns(runsDir)
		if err != nil {
			fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
			return exitFatal
		}
		if len(runs) == 0 {
			fmt.Fprintf(a.std.stderr, "no runs in %s\n", runsDir)
			return exitOK
		}
		w := tabwriter.NewWriter(a.std.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tSTARTED\tSTATUS\tMODIFIED\tCHANGES\tOVERFLOWS\tTARGET")
		for _, m := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				m.RunID, m.StartedAt.Local().Format(time.DateTime), m.Status,
				m.Stats.FilesModified, m.Stats.Changes, m.Stats.Overflows, m.Target)
		}
		if err := w.Flush(); err != nil {
			fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
			return exitFatal
		}
		return exitOK
	}

	run, err := viewer.LoadRun(runsDir, a.opts.ViewRunID)
	if err != nil {
		fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
		return exitFatal
	}
	if a.opts.ViewTUI {
		if err := tui.RunView(run.Meta, run.Events); err != nil {
			fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
			return exitFatal
		}
		return exitOK
	}

	md, err := report.Build(run.Meta, run.Events)
	if err != nil {
		fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
		return exitFatal
	}
	fmt.Fprint(a.std.stdout, report.Render(md, terminalWidth(a.std.stdout), isTerminal(a.std.stdout)))
	return exitOK
}

// fixJSON repairs raw line breaks in string literals and writes the repair
// log next to the run artifacts.
func (a *app) fixJSON(ctx context.Context) int {
	summary, err := jsonfix.FixTree(ctx, a.opts.FixDir, a.rt.Config.Extension, a.log)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(a.std.stderr, "rebalance: %v\n", err)
		return exitFatal
	}

	logPath := filepath.Join(a.rt.Config.RunsDir, jsonfix.LogFileName)
	if werr := writeFixLog(logPath, summary); werr != nil {
		fmt.Fprintf(a.std.stderr, "rebalance: %v\n", werr)
		return exitFatal
	}

	fmt.Fprintf(a.std.stderr, "fixed %d files, %d errors; log written to %s\n",
		len(summary.Files), len(summary.Errors), logPath)
	switch {
	case ctx.Err() != nil:
		return exitInterrupted
	case len(summary.Errors) > 0:
		return exitFileErrors
	}
	return exitOK
}

func writeFixLog(path string, summary jsonfix.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fix log: %w", err)
	}
	if err := jsonfix.WriteLog(f, summary, time.Now()); err != nil {
		f.Close()
		return fmt.Errorf("write fix log: %w", err)
	}
	return f.Close()
}
