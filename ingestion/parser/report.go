package parser

import (
	"fmt"

	"logshelf/internal/models"
)

// EventKind identifies a recoverable condition met while assembling records.
type EventKind string

const (
	// EventMalformedTimestamp: a header line's timestamp could not be parsed and
	// the record got the parse time instead.
	EventMalformedTimestamp EventKind = "malformed_timestamp"
	// EventUnattachableContinuation: a continuation line arrived before any
	// header line and was dropped.
	EventUnattachableContinuation EventKind = "unattachable_continuation"
)

// Event is one reported condition, tied to the 1-based line number it came from.
type Event struct {
	Kind EventKind
	Line int
	Text string
	Err  error
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Kind, e.Err)
	}
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Kind, e.Text)
}

// Result is the output of one assembly pass.
type Result struct {
	Records []models.LogRecord
	Events  []Event
	// Lines is the number of physical lines consumed.
	Lines int
}

// Count returns how many events of the given kind were reported.
func (r *Result) Count(kind EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
