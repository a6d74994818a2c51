package tasks

import (
	"time"

	"github.com/desertthunder/crates/internal/models"
)

// ItemFailure is a release that was added to the skip set during the run.
type ItemFailure struct {
	ReleaseID int64  `json:"release_id"`
	Position  int    `json:"position"`
	Reason    string `json:"reason"`
}

// Subject kinds for [Lookup].
const (
	SubjectRelease = "release"
	SubjectArtist  = "artist"
)

// Lookup is an enrichment request that produced nothing for one provider.
//
// Reason is empty for an unresolved lookup (the provider had no match) and carries the error
// for a degraded one.
type Lookup struct {
	Provider string `json:"provider"`
	Subject  string `json:"subject"`
	ID       int64  `json:"id"`
	Query    string `json:"query"`
	Reason   string `json:"reason,omitempty"`
}

// RunSummary accumulates everything one run did. It is owned by the run and returned to the
// caller, so nothing leaks between runs.
type RunSummary struct {
	RunID           string           `json:"run_id"`
	Status          models.RunStatus `json:"status"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	Total           int              `json:"total"`
	StartCheckpoint int              `json:"start_checkpoint"`
	Checkpoint      int              `json:"checkpoint"`
	FastForwarded   int              `json:"fast_forwarded"`
	Fetched         []int64          `json:"fetched"`
	Cached          []int64          `json:"cached"`
	Skipped         []int64          `json:"skipped"`
	Failed          []ItemFailure    `json:"failed"`
	Contributors    []int64          `json:"contributors"`
	Unresolved      []Lookup         `json:"unresolved"`
	Degraded        []Lookup         `json:"degraded"`
	Error           string           `json:"error,omitempty"`
}

func newRunSummary(id string, started time.Time) *RunSummary {
	return &RunSummary{
		RunID:        id,
		Status:       models.RunRunning,
		StartedAt:    started,
		Fetched:      []int64{},
		Cached:       []int64{},
		Skipped:      []int64{},
		Failed:       []ItemFailure{},
		Contributors: []int64{},
		Unresolved:   []Lookup{},
		Degraded:     []Lookup{},
	}
}

// Attempted is the number of items the walk reached past the checkpoint.
func (s *RunSummary) Attempted() int {
	return len(s.Fetched) + len(s.Cached) + len(s.Skipped) + len(s.Failed)
}

// Duration is the wall time of the run, or zero while it is still running.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// UnresolvedBy groups unresolved lookups by provider.
func (s *RunSummary) UnresolvedBy() map[string][]Lookup {
	out := make(map[string][]Lookup)
	for _, l := range s.Unresolved {
		out[l.Provider] = append(out[l.Provider], l)
	}
	return out
}

// SyncRun converts the summary into its persisted history row.
func (s *RunSummary) SyncRun() *models.SyncRun {
	run := &models.SyncRun{
		ID:         s.RunID,
		StartedAt:  s.StartedAt,
		Status:     s.Status,
		Total:      s.Total,
		Processed:  len(s.Fetched),
		Cached:     len(s.Cached),
		Skipped:    len(s.Skipped),
		Failed:     len(s.Failed),
		Checkpoint: s.Checkpoint,
		Error:      s.Error,
	}
	if !s.FinishedAt.IsZero() {
		finished := s.FinishedAt
		run.FinishedAt = &finished
	}
	return run
}

func (s *RunSummary) fail(item models.CollectionItem, err error) {
	s.Failed = append(s.Failed, ItemFailure{ReleaseID: item.ReleaseID, Position: item.Position, Reason: err.Error()})
}

func (s *RunSummary) unresolved(provider, subject string, id int64, query string) {
	s.Unresolved = append(s.Unresolved, Lookup{Provider: provider, Subject: subject, ID: id, Query: query})
}

func (s *RunSummary) degrade(provider, subject string, id int64, query string, err error) {
	s.Degraded = append(s.Degraded, Lookup{Provider: provider, Subject: subject, ID: id, Query: query, Reason: err.Error()})
}

// finish stamps the terminal status. A non-nil err is recorded as the run error.
func (s *RunSummary) finish(status models.RunStatus, at time.Time, err error) {
	s.Status = status
	s.FinishedAt = at
	if err != nil {
		s.Error = err.Error()
	}
}
