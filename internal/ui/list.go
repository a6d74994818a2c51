package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/crates/internal/tasks"
)

var (
	_ list.Item = outcomeItem{}
)

// outcomeItem is one line of the post-run report: a failed item or a lookup that came back empty.
type outcomeItem struct {
	kind   string
	title  string
	detail string
}

func (i outcomeItem) FilterValue() string { return i.title }
func (i outcomeItem) Title() string       { return fmt.Sprintf("%s %s", i.kind, i.title) }
func (i outcomeItem) Description() string { return i.detail }

// outcomeItems lists failures first, then degraded lookups, then unresolved ones.
func outcomeItems(s *tasks.RunSummary) []list.Item {
	if s == nil {
		return nil
	}

	items := make([]list.Item, 0, len(s.Failed)+len(s.Degraded)+len(s.Unresolved))
	for _, f := range s.Failed {
		items = append(items, outcomeItem{
			kind:   "✗",
			title:  fmt.Sprintf("release %d (position %d)", f.ReleaseID, f.Position),
			detail: f.Reason,
		})
	}
	for _, l := range s.Degraded {
		items = append(items, outcomeItem{
			kind:   "!",
			title:  fmt.Sprintf("%s %s %d", l.Provider, l.Subject, l.ID),
			detail: l.Reason,
		})
	}
	for _, l := range s.Unresolved {
		items = append(items, outcomeItem{
			kind:   "?",
			title:  fmt.Sprintf("%s %s %d", l.Provider, l.Subject, l.ID),
			detail: fmt.Sprintf("no match for %q", l.Query),
		})
	}
	return items
}
