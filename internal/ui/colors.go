package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/chordsync/internal/shared"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	chord lipgloss.Style
	live  lipgloss.Style
	toast lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		chord: NewBold(t),
		live:  NewBold("#FFFFFF").Background(lipgloss.Color(e)).Padding(0, 1),
		toast: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// Toast styles a notification by level.
func (p *Palette) Toast(level shared.Level, message string) string {
	switch level {
	case shared.LevelError:
		return p.toast.BorderForeground(p.err.GetForeground()).Render(p.err.Render(message))
	case shared.LevelWarn:
		return p.toast.BorderForeground(p.warn.GetForeground()).Render(p.warn.Render(message))
	case shared.LevelSuccess:
		return p.toast.BorderForeground(p.ok.GetForeground()).Render(p.ok.Render(message))
	default:
		return p.toast.Render(message)
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
