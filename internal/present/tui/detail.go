package tui

import (
	"bytes"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/changelog/internal/present/format"
	"github.com/mithrel/changelog/pkg/api"
)

// detailPane shows the glamour-rendered notes of the selected entry inside a
// scrollable viewport.
type detailPane struct {
	vp      viewport.Model
	box     lipgloss.Style
	width   int
	height  int
	padX    int
	padY    int
	style   string
	focused bool
	content string
}

func newDetailPane(style string) *detailPane {
	d := &detailPane{padX: 1, padY: 0, style: style}
	d.resize(80, 12)
	return d
}

func (d *detailPane) innerWidth() int {
	return max(10, d.width-2-d.padX*2)
}

func (d *detailPane) resize(w, h int) {
	d.width, d.height = w, h
	innerW := d.innerWidth()
	innerH := max(3, h-2-d.padY*2)
	if d.vp.Width == 0 {
		d.vp = viewport.New(innerW, innerH)
	} else {
		d.vp.Width = innerW
		d.vp.Height = innerH
	}
	d.applyBox()
	d.vp.SetContent(d.content)
}

func (d *detailPane) applyBox() {
	border := lipgloss.Color("240")
	if d.focused {
		border = lipgloss.Color("63")
	}
	d.box = lipgloss.NewStyle().
		Width(d.width - 2).
		Padding(d.padY, d.padX).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)
}

func (d *detailPane) setFocused(f bool) {
	d.focused = f
	d.applyBox()
}

// setEntry renders e using the shared pretty renderer.
func (d *detailPane) setEntry(e api.Entry, now time.Time) {
	var buf bytes.Buffer
	opts := format.PrettyOptions{Width: d.innerWidth(), Style: d.style, Now: now}
	if err := format.WritePrettyEntry(&buf, e, opts); err != nil {
		d.setContent(format.EntryMarkdown(e, now))
		return
	}
	d.setContent(buf.String())
}

func (d *detailPane) setContent(s string) {
	d.content = s
	d.vp.SetContent(s)
	d.vp.GotoTop()
}

func (d *detailPane) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.vp, cmd = d.vp.Update(msg)
	return cmd
}

func (d *detailPane) view() string { return d.box.Render(d.vp.View()) }
