package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/crates/internal/models"
)

func TestRunSummary(t *testing.T) {
	t.Run("Attempted Counts Every Outcome", func(t *testing.T) {
		s := newRunSummary("run-1", epoch)
		s.Fetched = []int64{1, 2}
		s.Cached = []int64{3}
		s.Skipped = []int64{4}
		s.fail(models.CollectionItem{ReleaseID: 5, Position: 5}, errors.New("boom"))

		if got := s.Attempted(); got != 5 {
			t.Errorf("expected 5 attempted, got %d", got)
		}
	})

	t.Run("SyncRun Conversion", func(t *testing.T) {
		s := newRunSummary("run-1", epoch)
		s.Total = 10
		s.Fetched = []int64{1}
		s.Checkpoint = 4
		s.finish(models.RunPaused, epoch.Add(time.Minute), nil)

		run := s.SyncRun()
		if run.ID != "run-1" || run.Status != models.RunPaused || run.Total != 10 || run.Processed != 1 || run.Checkpoint != 4 {
			t.Errorf("unexpected run %+v", run)
		}
		if run.FinishedAt == nil || run.Duration() != time.Minute {
			t.Errorf("expected one minute duration, got %v", run.Duration())
		}
		if run.Error != "" {
			t.Errorf("paused run should carry no error, got %q", run.Error)
		}
	})

	t.Run("Unfinished Run Has No Duration", func(t *testing.T) {
		s := newRunSummary("run-1", epoch)
		if s.Duration() != 0 || s.SyncRun().FinishedAt != nil {
			t.Errorf("expected no finish time on a running summary")
		}
	})

	t.Run("Finish Records Error", func(t *testing.T) {
		s := newRunSummary("run-1", epoch)
		s.finish(models.RunFailed, epoch, errors.New("store unavailable"))
		if s.Error != "store unavailable" {
			t.Errorf("expected error recorded, got %q", s.Error)
		}
	})

	t.Run("Unresolved Grouped By Provider", func(t *testing.T) {
		s := newRunSummary("run-1", epoch)
		s.unresolved("spotify", SubjectRelease, 1, "a")
		s.unresolved("wikipedia", SubjectRelease, 1, "a")
		s.unresolved("spotify", SubjectArtist, 9, "b")

		by := s.UnresolvedBy()
		if len(by["spotify"]) != 2 || len(by["wikipedia"]) != 1 {
			t.Errorf("unexpected grouping %+v", by)
		}
	})
}

func TestArtistIndex(t *testing.T) {
	x := NewArtistIndex()

	if _, ok := x.Lookup(1); ok {
		t.Fatalf("empty index should not know id 1")
	}

	c := &models.Contributor{ID: 1, Name: "Nirvana"}
	x.Remember(1, c)
	x.Remember(2, nil)

	if got, ok := x.Lookup(1); !ok || got != c {
		t.Errorf("expected stored contributor, got %v %v", got, ok)
	}
	if got, ok := x.Lookup(2); !ok || got != nil {
		t.Errorf("expected degraded entry to be remembered as nil, got %v %v", got, ok)
	}
	if x.Len() != 2 {
		t.Errorf("expected 2 ids, got %d", x.Len())
	}
}
