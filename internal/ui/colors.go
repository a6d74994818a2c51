package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/crates/internal/models"
)

var styles = NewPalette(PaletteColors{
	Accent:  "#7D56F4",
	Success: "#04B575",
	Failure: "#FF0000",
	Warning: "#FFA500",
	Subtle:  "#626262",
})

// PaletteColors names the foreground colors the sync views are drawn with.
type PaletteColors struct {
	Accent  string
	Success string
	Failure string
	Warning string
	Subtle  string
}

// Palette holds the styles for the sync and result views.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	muted lipgloss.Style
}

func NewPalette(c PaletteColors) *Palette {
	return &Palette{
		title: NewBold(c.Accent).MarginBottom(1),
		ok:    NewBold(c.Success),
		err:   NewBold(c.Failure),
		warn:  NewStyle(c.Warning),
		help:  NewEm(c.Subtle),
		muted: NewStyle(c.Subtle),
	}
}

// forStatus picks the header style of a finished run.
func (p *Palette) forStatus(status models.RunStatus) lipgloss.Style {
	switch status {
	case models.RunCompleted:
		return p.ok
	case models.RunPaused, models.RunInterrupted:
		return p.warn
	default:
		return p.err
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
