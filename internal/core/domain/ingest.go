package domain

import (
	"fmt"
	"time"
)

// IngestionState is a step of the ingestion state machine.
type IngestionState string

const (
	StateReceived  IngestionState = "received"
	StateExtracted IngestionState = "extracted"
	StateChunked   IngestionState = "chunked"
	StateEmbedded  IngestionState = "embedded"
	StateIndexed   IngestionState = "indexed"
	StatePersisted IngestionState = "persisted"
	StateFailed    IngestionState = "failed"
)

var nextState = map[IngestionState]IngestionState{
	StateReceived:  StateExtracted,
	StateExtracted: StateChunked,
	StateChunked:   StateEmbedded,
	StateEmbedded:  StateIndexed,
	StateIndexed:   StatePersisted,
}

// Terminal reports whether no transition leaves this state.
func (s IngestionState) Terminal() bool {
	return s == StatePersisted || s == StateFailed
}

// CanTransition reports whether the machine may move from s to to.
// Failed is reachable from every non-terminal state.
func (s IngestionState) CanTransition(to IngestionState) bool {
	if s.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return nextState[s] == to
}

// IngestionJob records the progress of one ingestion run.
type IngestionJob struct {
	ID        string
	SRDID     string
	Version   int
	State     IngestionState
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Advance moves the job to the given state.
func (j *IngestionJob) Advance(to IngestionState, now time.Time) error {
	if !j.State.CanTransition(to) {
		return fmt.Errorf("%w: illegal ingestion transition %s -> %s", ErrValidation, j.State, to)
	}
	j.State = to
	j.UpdatedAt = now
	return nil
}

// Fail moves the job to Failed and records the cause.
func (j *IngestionJob) Fail(cause error, now time.Time) {
	if j.State.Terminal() {
		return
	}
	j.State = StateFailed
	if cause != nil {
		j.Error = cause.Error()
	}
	j.UpdatedAt = now
}

// IngestRequest is the boundary payload of an upload event.
type IngestRequest struct {
	SRDID       string `json:"srd_id,omitempty"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     []byte `json:"-"`
}

// Validate checks the request shape. An empty srd_id is allowed when a filename
// is present; the pipeline derives one.
func (r IngestRequest) Validate() error {
	if r.SRDID == "" && r.Filename == "" {
		return fmt.Errorf("%w: srd_id or filename is required", ErrValidation)
	}
	if r.SRDID != "" && !ValidSRDID(r.SRDID) {
		return fmt.Errorf("%w: invalid srd_id %q", ErrValidation, r.SRDID)
	}
	if len(r.Content) == 0 {
		return fmt.Errorf("%w: document is empty", ErrValidation)
	}
	return nil
}

// IngestResult is the outcome of a successful ingestion.
type IngestResult struct {
	JobID    string   `json:"job_id"`
	SRDID    string   `json:"srd_id"`
	Version  int      `json:"version"`
	Location string   `json:"location"`
	Manifest Manifest `json:"manifest"`
}
