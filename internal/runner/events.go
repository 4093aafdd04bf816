package runner

import (
	"github.com/fsmiamoto/rebalance/internal/eventlog"
	"github.com/fsmiamoto/rebalance/internal/runstore"
)

// EventType enumerates the progress notifications sent to a live view.
type EventType string

const (
	EventRunStarted  EventType = "run_started"
	EventFileStarted EventType = "file_started"
	EventRecord      EventType = "record"
	EventRunFinished EventType = "run_finished"
)

// Event is one progress notification. Stats is a snapshot taken when the
// event was produced, so a consumer that misses events still shows
// current totals.
type Event struct {
	Type   EventType
	RunID  string
	File   string
	Record eventlog.Event
	Stats  runstore.Stats
	Status Status
}
