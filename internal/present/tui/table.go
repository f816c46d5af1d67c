package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/changelog/internal/present/format"
	"github.com/mithrel/changelog/pkg/api"
)

// Options configures the interactive browser.
type Options struct {
	Headers bool
	Style   string
	Now     time.Time
	Output  io.Writer
}

// RenderTable opens an interactive Bubble Tea table of versions with the
// selected entry's notes shown below it.
func RenderTable(ctx context.Context, entries []api.Entry, opts Options) error {
	m := newModel(entries, opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	p := tea.NewProgram(m, progOpts...)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

type model struct {
	table       table.Model
	detail      *detailPane
	entries     []api.Entry
	headers     bool
	focusDetail bool
	shown       int
	width       int
	height      int
	now         time.Time
}

func newModel(entries []api.Entry, opts Options) model {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	m := model{
		entries: entries,
		headers: opts.Headers,
		detail:  newDetailPane(opts.Style),
		shown:   -1,
		now:     now,
	}
	m.initTable()
	m.syncDetail()
	return m
}

func (m *model) initTable() {
	cols := m.columnsFor(m.headers, 24, 5, 10)
	m.table = table.New(table.WithColumns(cols), table.WithFocused(true))
	m.updateRows()
	m.applyStyles()
}

func (m *model) updateRows() {
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		rows = append(rows, table.Row{e.Version, prereleaseLabel(e), publishedLabel(e)})
	}
	m.table.SetRows(rows)
}

// syncDetail re-renders the notes pane when the cursor moved to another entry.
func (m *model) syncDetail() {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.entries) {
		if m.shown != -1 {
			m.detail.setContent(format.EmptyMessage)
			m.shown = -1
		}
		return
	}
	if idx == m.shown {
		return
	}
	m.detail.setEntry(m.entries[idx], m.now)
	m.shown = idx
}

func (m *model) setFocus(detail bool) {
	m.focusDetail = detail
	m.detail.setFocused(detail)
	if detail {
		m.table.Blur()
	} else {
		m.table.Focus()
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.applyLayout()
		m.shown = -1
		m.syncDetail()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "ctrl+q":
			return m, tea.Quit
		case "esc":
			if m.focusDetail {
				m.setFocus(false)
				return m, nil
			}
			return m, tea.Quit
		case "tab", "enter":
			m.setFocus(!m.focusDetail)
			return m, nil
		}
		if m.focusDetail {
			return m, m.detail.update(msg)
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.syncDetail()
	return m, cmd
}

func (m model) renderFooter() string {
	left := "↑/↓ to navigate • tab=notes • q=exit"
	if m.focusDetail {
		left = "↑/↓ to scroll • tab/esc=versions • q=exit"
	}
	right := fmt.Sprintf("%d entries ", len(m.entries))

	width := max(m.width, m.table.Width())
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		space = 1
	}
	return left + strings.Repeat(" ", space) + right
}

func (m model) View() string {
	if len(m.entries) == 0 {
		return format.EmptyMessage + "\n"
	}
	title := lipgloss.NewStyle().Bold(true).Render(format.Title)
	return title + "\n" + m.table.View() + "\n" + m.detail.view() + "\n" + m.renderFooter() + "\n"
}

// applyLayout splits the screen between the version table and the notes pane.
func (m *model) applyLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	// title, footer and the table's header row
	avail := max(8, m.height-3)
	tableH := min(len(m.entries)+2, max(4, avail/3))
	m.table.SetHeight(tableH)
	m.table.SetWidth(m.width)
	m.detail.resize(m.width, max(5, avail-tableH))

	verW := max(12, m.width-5-10-8)
	m.table.SetColumns(m.columnsFor(m.headers, verW, 5, 10))
}

func (m *model) applyStyles() {
	s := table.DefaultStyles()
	if m.headers {
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
	} else {
		s.Header = s.Header.
			BorderBottom(false).
			Bold(false)
	}
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	m.table.SetStyles(s)
}

// columnsFor returns columns with or without titles based on headers flag.
func (m *model) columnsFor(headers bool, versionW, preW, publishedW int) []table.Column {
	if headers {
		return []table.Column{
			{Title: "Version", Width: versionW},
			{Title: "Pre", Width: preW},
			{Title: "Published", Width: publishedW},
		}
	}
	return []table.Column{
		{Title: "", Width: versionW},
		{Title: "", Width: preW},
		{Title: "", Width: publishedW},
	}
}
