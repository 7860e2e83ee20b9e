package sync

import (
	"strings"
	"time"
)

// Mode selects the reconciliation behavior for a batch.
type Mode string

const (
	// ModeCreate creates new posts, refusing rows whose title already exists.
	ModeCreate Mode = "create"
	// ModeUpdate sparse-merges rows into existing posts located by id, slug, or title.
	ModeUpdate Mode = "update"
)

// Action records what a row's reconciliation did on the remote site.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionNone    Action = "none"
)

// Row is one CSV record: an immutable mapping of column name to raw value.
// Number is the 1-based data row index (the header row is not counted).
type Row struct {
	Number int
	Fields map[string]string
}

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// Has reports whether a column is present with a non-blank value.
func (r Row) Has(name string) bool {
	return r.Get(name) != ""
}

// Outcome is the result of reconciling one row.
//
// Invariants: Err is non-empty iff Action is ActionNone, and RemoteID is
// non-zero iff Action is ActionCreated or ActionUpdated.
type Outcome struct {
	RowNumber    int    `json:"row_number"`
	Title        string `json:"title"`
	Action       Action `json:"action"`
	RemoteID     int    `json:"remote_id,omitempty"`
	RemoteStatus string `json:"remote_status,omitempty"`
	Err          string `json:"error,omitempty"`
}

// Failed reports whether the row was not applied to the remote site.
func (o Outcome) Failed() bool {
	return o.Action == ActionNone
}

// Summary aggregates the outcomes of one batch run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Mode      Mode          `json:"mode"`
	Site      string        `json:"site"`
	Total     int           `json:"total"`
	Succeeded int           `json:"success_count"`
	Failed    int           `json:"failed_count"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"-"`
	Seconds   float64       `json:"duration_seconds"`
	Outcomes  []Outcome     `json:"outcomes"`
}

// EventType classifies a progress event.
type EventType string

const (
	EventInfo    EventType = "info"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

// ProgressEvent is emitted at row transitions so callers can relay progress.
// Delivery is the caller's concern; the driver only invokes the callback.
type ProgressEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Message   string    `json:"message"`
	RowNumber int       `json:"row_number,omitempty"`
	RemoteID  int       `json:"remote_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Err       string    `json:"error,omitempty"`
}

// ProgressFunc receives progress events during a batch run. May be nil.
type ProgressFunc func(ProgressEvent)
