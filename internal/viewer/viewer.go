// Package viewer loads saved run data for read-only replay.
package viewer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsmiamoto/rebalance/internal/eventlog"
	"github.com/fsmiamoto/rebalance/internal/runstore"
)

// SavedRun holds the loaded data for a past run.
type SavedRun struct {
	Dir    string
	Meta   runstore.Meta
	Events []eventlog.Event
}

// LoadRun loads a saved run from disk. The runID may be a prefix;
// it is resolved to a full directory name via ResolveRunID.
func LoadRun(runsDir, runID string) (*SavedRun, error) {
	resolvedID, err := ResolveRunID(runsDir, runID)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(runsDir, resolvedID)
	meta, err := runstore.ReadMeta(dir)
	if err != nil {
		return nil, err
	}

	// A run killed before it finished may have no events file.
	events, err := runstore.ReadEvents(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		events = nil
	}

	return &SavedRun{Dir: dir, Meta: meta, Events: events}, nil
}

// ResolveRunID finds a run directory matching the given prefix.
// If exactly one directory starts with prefix, its name is returned.
// If multiple match, an error listing them is returned.
// If none match, a "not found" error is returned.
func ResolveRunID(runsDir, prefix string) (string, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return "", fmt.Errorf("reading runs directory: %w", err)
	}

	var matches []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if e.Name() == prefix {
			return prefix, nil
		}
		if strings.HasPrefix(e.Name(), prefix) {
			matches = append(matches, e.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no run found matching %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous run-id %q matches %d runs:\n  %s",
			prefix, len(matches), strings.Join(matches, "\n  "))
	}
}

// ListRuns returns metadata for all runs that have a valid meta.json,
// sorted by start time (newest first).
func ListRuns(runsDir string) ([]runstore.Meta, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading runs directory: %w", err)
	}

	var runs []runstore.Meta
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := runstore.ReadMeta(filepath.Join(runsDir, e.Name()))
		if err != nil {
			continue // skip runs without a readable meta.json
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	return runs, nil
}
