package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/tasks"
)

// recentLines is how many pipeline messages the sync view keeps on screen.
const recentLines = 6

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SyncView ViewState = iota
	ResultView
)

// RunFunc runs one sync, reporting on progress. It must not close progress.
type RunFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunSummary, error)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	run      RunFunc
	view     ViewState
	width    int
	height   int
	updates  chan tasks.ProgressUpdate
	done     chan syncResult
	latest   tasks.ProgressUpdate
	position int
	total    int
	recent   []string
	stopping bool
	bar      progress.Model
	spinner  spinner.Model
	outcomes list.Model
	summary  *tasks.RunSummary
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a TUI model that runs fn when started.
func NewModel(ctx context.Context, fn RunFunc) *Model {
	h := help.New()
	h.Styles.ShortDesc = styles.help
	return &Model{
		ctx:     ctx,
		run:     fn,
		view:    SyncView,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(60)),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title.UnsetMarginBottom())),
		help:    h,
		keys:    newKeyMap(),
	}
}

// Summary returns the finished run, or nil while it is still going.
func (m *Model) Summary() *tasks.RunSummary { return m.summary }

// Err returns the error the run ended with.
func (m *Model) Err() error { return m.err }

// Init starts the sync and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startSync())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-4, 10), 80)
		if m.view == ResultView {
			m.outcomes.SetSize(msg.Width-4, max(msg.Height-10, 5))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SyncView:
			return m.handleSyncKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != SyncView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.apply(msg.data.(tasks.ProgressUpdate))
			return m, m.waitForProgress()
		case MsgSyncComplete:
			res := msg.data.(syncResult)
			m.finish(res.summary, res.err)
			return m, nil
		}
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.outcomes, cmd = m.outcomes.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) && !m.stopping {
		m.stopping = true
		if m.cancel != nil {
			m.cancel()
		}
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.outcomes.FilterState() != list.Filtering && key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.outcomes, cmd = m.outcomes.Update(msg)
	return m, cmd
}

// apply records one progress update. Paging updates count pages, not items, so they leave the bar alone.
func (m *Model) apply(u tasks.ProgressUpdate) {
	m.latest = u
	if u.Phase != tasks.Paging && u.Total > 0 {
		m.position = u.Step
		m.total = u.Total
	}
	if u.Message != "" {
		m.recent = append(m.recent, u.Message)
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}
	}
}

func (m *Model) finish(summary *tasks.RunSummary, err error) {
	m.summary = summary
	m.err = err
	m.view = ResultView
	if m.cancel != nil {
		m.cancel()
	}

	m.outcomes = list.New(outcomeItems(summary), list.NewDefaultDelegate(), max(m.width-4, 20), max(m.height-10, 5))
	m.outcomes.Title = "Needs attention"
	m.outcomes.SetShowHelp(false)
}

// startSync launches the run. The goroutine closes the progress channel when the run returns, then
// hands over the result, so waitForProgress drains every update before reporting completion.
func (m *Model) startSync() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.updates = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan syncResult, 1)

	updates, done := m.updates, m.done
	go func() {
		summary, err := m.run(ctx, updates)
		close(updates)
		done <- syncResult{summary, err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			res := <-done
			return syncCompleteMsg(res.summary, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return min(float64(m.position)/float64(m.total), 1)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing collection")

	phase := m.latest.Phase.String()
	if m.stopping {
		phase = "stopping after current item"
	}
	status := fmt.Sprintf("%s %s", m.spinner.View(), phase)
	counts := styles.muted.Render(fmt.Sprintf("%d/%d", m.position, m.total))

	var b strings.Builder
	for _, line := range m.recent {
		b.WriteString(styles.muted.Render(line))
		b.WriteString("\n")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.cancel})
	return fmt.Sprintf("%s\n%s\n%s %s\n\n%s\n%s", title, status, m.bar.ViewAs(m.percent()), counts, b.String(), helpView)
}

func (m *Model) renderResult() string {
	var header string
	switch {
	case m.summary == nil && m.err != nil:
		header = styles.err.Render(fmt.Sprintf("Sync failed: %v", m.err))
	case m.summary == nil:
		header = styles.err.Render("No result available")
	default:
		header = styles.forStatus(m.summary.Status).Render(resultHeader(m.summary))
	}

	if m.summary == nil {
		return fmt.Sprintf("%s\n\n%s", header, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}

	s := m.summary
	info := fmt.Sprintf(
		"\nFetched %d • Cached %d • Skipped %d • Failed %d • Contributors %d\nDuration: %s",
		len(s.Fetched), len(s.Cached), len(s.Skipped), len(s.Failed), len(s.Contributors), s.Duration(),
	)

	body := styles.ok.Render("\nNothing needs attention.")
	if len(m.outcomes.Items()) > 0 {
		body = "\n" + m.outcomes.View()
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.filter, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", header, info, body, helpView)
}

func resultHeader(s *tasks.RunSummary) string {
	switch s.Status {
	case models.RunCompleted:
		return "✓ Sync complete"
	case models.RunPaused:
		return fmt.Sprintf("Sync paused at position %d/%d", s.Checkpoint, s.Total)
	case models.RunInterrupted:
		return fmt.Sprintf("Sync interrupted at position %d/%d", s.Checkpoint, s.Total)
	default:
		return fmt.Sprintf("Sync failed: %s", s.Error)
	}
}
