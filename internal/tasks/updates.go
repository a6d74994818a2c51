package tasks

import (
	"fmt"

	"github.com/desertthunder/crates/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline state
	Step    int    // Current collection position, or page number while paging
	Total   int    // Captured collection size, or page count while paging
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase is a state of the sync state machine.
type Phase int

const (
	Idle Phase = iota
	Paging
	CacheCheck
	Fetching
	Enriching
	Persisting
	Checkpointing
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Paging:
		return "paging"
	case CacheCheck:
		return "cache_check"
	case Fetching:
		return "fetching"
	case Enriching:
		return "enriching"
	case Persisting:
		return "persisting"
	case Checkpointing:
		return "checkpointing"
	case Done:
		return "done"
	default:
		return ""
	}
}

func startUpdate(total, checkpoint int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Idle,
		Step:    checkpoint,
		Total:   total,
		Message: fmt.Sprintf("Collection has %d items, resuming after position %d", total, checkpoint),
	}
}

func pagingUpdate(page, pages int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Paging,
		Step:    page,
		Total:   pages,
		Message: fmt.Sprintf("Fetching collection page %d/%d...", page, pages),
	}
}

func itemUpdate(phase Phase, item models.CollectionItem, total int, msg string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    item.Position,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %d: %s", item.Position, total, item.ReleaseID, msg),
		Data:    item,
	}
}

func persistedUpdate(item models.CollectionItem, total int, r *models.Release) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Persisting,
		Step:    item.Position,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", item.Position, total, r.ArtistName, r.Title),
		Data:    r,
	}
}

func failedUpdate(item models.CollectionItem, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Checkpointing,
		Step:    item.Position,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %d: %v", item.Position, total, item.ReleaseID, err),
		Data:    item,
	}
}

func checkpointUpdate(position, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Checkpointing,
		Step:    position,
		Total:   total,
		Message: fmt.Sprintf("Checkpoint at %d/%d", position, total),
	}
}

func doneUpdate(s *RunSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    s.Checkpoint,
		Total:   s.Total,
		Message: fmt.Sprintf("Run %s: %d fetched, %d cached, %d skipped, %d failed", s.Status, len(s.Fetched), len(s.Cached), len(s.Skipped), len(s.Failed)),
		Data:    s,
	}
}
