package eventlog

import (
	"bufio"
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"
)

type Kind string

const (
	KindChange      Kind = "change"
	KindOverflow    Kind = "overflow"
	KindFileSkipped Kind = "file_skipped"
	KindFileError   Kind = "file_error"
	KindFileWritten Kind = "file_written"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	File      string    `json:"file"`
	RowID     string    `json:"row_id,omitempty"`
	Profile   string    `json:"profile,omitempty"`
	Rule      string    `json:"rule,omitempty"`
	Old       string    `json:"old,omitempty"`
	New       string    `json:"new,omitempty"`
	Lines     int       `json:"lines,omitempty"`
	Width     int       `json:"width,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Encode writes ev as one JSON line.
func Encode(w io.Writer, ev Event) error {
	b, err := json.MarshalWithOption(ev, json.DisableHTMLEscape())
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func Decode(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, err
	}
	if ev.Kind == "" {
		return Event{}, fmt.Errorf("event has no kind")
	}
	return ev, nil
}

// ReadAll decodes a JSONL stream, skipping blank lines.
func ReadAll(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	events := make([]Event, 0, 128)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := Decode(line)
		if err != nil {
			return nil, fmt.Errorf("parse events line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}

// Counts tallies events by kind.
func Counts(events []Event) map[Kind]int {
	counts := make(map[Kind]int)
	for _, ev := range events {
		counts[ev.Kind]++
	}
	return counts
}
