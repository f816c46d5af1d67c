package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/changelog/pkg/api"
)

func makeEntries() []api.Entry {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	return []api.Entry{
		{Version: "1.2.0", Text: "second release notes", PublishedAt: now},
		{Version: "1.1.0-rc.1", Text: "candidate notes", Prerelease: true},
		{Version: "1.0.0", Text: "first release notes"},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

func TestModelFollowsCursor(t *testing.T) {
	m := newModel(makeEntries(), Options{Headers: true, Style: "notty"})
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 0, m.shown)
	assert.Contains(t, m.detail.content, "second release notes")

	m, _ = step(t, m, key("down"))
	assert.Equal(t, 1, m.shown)
	assert.Contains(t, m.detail.content, "candidate notes")

	row := m.table.SelectedRow()
	assert.Equal(t, "1.1.0-rc.1", row[0])
	assert.Equal(t, "pre", row[1])
	assert.Equal(t, "-", row[2])
}

func TestModelFocusAndQuit(t *testing.T) {
	m := newModel(makeEntries(), Options{Style: "notty"})
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m, _ = step(t, m, key("tab"))
	assert.True(t, m.focusDetail)

	// Keys scroll the notes instead of moving the table.
	m, _ = step(t, m, key("down"))
	assert.Equal(t, 0, m.table.Cursor())

	m, cmd := step(t, m, key("esc"))
	assert.False(t, m.focusDetail)
	assert.Nil(t, cmd)

	_, cmd = step(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelEmpty(t *testing.T) {
	m := newModel(nil, Options{})
	assert.Equal(t, -1, m.shown)
	assert.Contains(t, m.View(), "No changelog available.")
}
