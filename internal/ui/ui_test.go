package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/tasks"
)

var keyQ = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}

// drive feeds messages from cmd back into the model until the run completes.
func drive(t *testing.T, m *Model, cmd tea.Cmd) int {
	t.Helper()
	updates := 0
	for m.view == SyncView {
		if cmd == nil {
			t.Fatal("expected a pending command while syncing")
		}
		msg := cmd()
		if um, ok := msg.(Msg); ok && um.kind == MsgProgressUpdate {
			updates++
		}
		_, cmd = m.Update(msg)
	}
	return updates
}

func summary(status models.RunStatus) *tasks.RunSummary {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &tasks.RunSummary{
		RunID:      "run-1",
		Status:     status,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Total:      3,
		Checkpoint: 0,
		Fetched:    []int64{101, 102},
		Cached:     []int64{},
		Skipped:    []int64{},
		Failed:     []tasks.ItemFailure{{ReleaseID: 103, Position: 3, Reason: "release not found"}},
		Unresolved: []tasks.Lookup{{Provider: "spotify", Subject: tasks.SubjectRelease, ID: 102, Query: "Nirvana In Utero"}},
		Degraded:   []tasks.Lookup{{Provider: "wikipedia", Subject: tasks.SubjectArtist, ID: 2, Reason: "service unavailable"}},
	}
}

func TestModelProgress(t *testing.T) {
	t.Run("Item Updates Move The Bar", func(t *testing.T) {
		m := NewModel(context.Background(), nil)
		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.Fetching, Step: 2, Total: 8, Message: "fetching"}))

		if m.position != 2 || m.total != 8 {
			t.Errorf("expected 2/8, got %d/%d", m.position, m.total)
		}
		if m.percent() != 0.25 {
			t.Errorf("expected 25%%, got %v", m.percent())
		}
		if !strings.Contains(m.View(), "fetching") {
			t.Errorf("expected phase in view, got %q", m.View())
		}
	})

	t.Run("Paging Updates Leave The Bar Alone", func(t *testing.T) {
		m := NewModel(context.Background(), nil)
		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.Persisting, Step: 4, Total: 10}))
		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.Paging, Step: 1, Total: 2, Message: "page"}))

		if m.position != 4 || m.total != 10 {
			t.Errorf("expected 4/10 after a paging update, got %d/%d", m.position, m.total)
		}
	})

	t.Run("Recent Messages Are Capped", func(t *testing.T) {
		m := NewModel(context.Background(), nil)
		for i := range recentLines + 3 {
			m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.Fetching, Step: i + 1, Total: 20, Message: string(rune('a' + i))}))
		}
		if len(m.recent) != recentLines {
			t.Fatalf("expected %d lines, got %d", recentLines, len(m.recent))
		}
		if m.recent[0] != "d" {
			t.Errorf("expected oldest lines dropped, got %v", m.recent)
		}
	})

	t.Run("Percent Never Exceeds One", func(t *testing.T) {
		m := NewModel(context.Background(), nil)
		m.position, m.total = 5, 3
		if m.percent() != 1 {
			t.Errorf("expected clamp to 1, got %v", m.percent())
		}
	})
}

func TestModelRun(t *testing.T) {
	t.Run("Drains Updates Then Shows Result", func(t *testing.T) {
		fn := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunSummary, error) {
			for i := 1; i <= 3; i++ {
				progress <- tasks.ProgressUpdate{Phase: tasks.Persisting, Step: i, Total: 3, Message: "ok"}
			}
			return summary(models.RunCompleted), nil
		}

		m := NewModel(context.Background(), fn)
		m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
		if n := drive(t, m, m.startSync()); n != 3 {
			t.Errorf("expected 3 progress messages, got %d", n)
		}

		if m.Summary() == nil || m.Err() != nil {
			t.Fatalf("expected summary without error, got %v %v", m.Summary(), m.Err())
		}
		view := m.View()
		for _, want := range []string{"Sync complete", "Fetched 2", "Failed 1", "release 103", "1m30s"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in result view:\n%s", want, view)
			}
		}
	})

	t.Run("Cancel Key Interrupts Run", func(t *testing.T) {
		fn := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunSummary, error) {
			<-ctx.Done()
			s := summary(models.RunInterrupted)
			s.Checkpoint = 1
			return s, ctx.Err()
		}

		m := NewModel(context.Background(), fn)
		cmd := m.startSync()
		m.Update(keyQ)
		if !m.stopping {
			t.Fatal("expected model to be stopping")
		}
		if !strings.Contains(m.View(), "stopping after current item") {
			t.Errorf("expected stopping notice, got %q", m.View())
		}

		drive(t, m, cmd)
		if !errors.Is(m.Err(), context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "Sync interrupted at position 1/3") {
			t.Errorf("unexpected result view:\n%s", m.View())
		}
	})

	t.Run("Failed Run Without Summary", func(t *testing.T) {
		fn := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunSummary, error) {
			return nil, errors.New("database is locked")
		}

		m := NewModel(context.Background(), fn)
		drive(t, m, m.startSync())
		if !strings.Contains(m.View(), "Sync failed: database is locked") {
			t.Errorf("unexpected result view:\n%s", m.View())
		}
	})

	t.Run("Quit From Result View", func(t *testing.T) {
		m := NewModel(context.Background(), nil)
		m.finish(summary(models.RunPaused), nil)

		if !strings.Contains(m.View(), "Sync paused at position 0/3") {
			t.Errorf("unexpected result view:\n%s", m.View())
		}
		_, cmd := m.Update(keyQ)
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("expected tea.QuitMsg")
		}
	})
}

func TestOutcomeItems(t *testing.T) {
	items := outcomeItems(summary(models.RunCompleted))
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	want := []string{"✗ release 103 (position 3)", "! wikipedia artist 2", "? spotify release 102"}
	for i, item := range items {
		if got := item.(outcomeItem).Title(); got != want[i] {
			t.Errorf("item %d: expected %q, got %q", i, want[i], got)
		}
	}
	if d := items[2].(outcomeItem).Description(); d != `no match for "Nirvana In Utero"` {
		t.Errorf("unexpected unresolved description %q", d)
	}

	if outcomeItems(nil) != nil {
		t.Errorf("expected no items for a nil summary")
	}
}
