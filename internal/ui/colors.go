package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the set of styles CLI output is rendered with.
type Theme struct {
	heading lipgloss.Style
	ok      lipgloss.Style
	bad     lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	label   lipgloss.Style
	badge   lipgloss.Style
}

// NewTheme builds a theme from hex colors for the accent, success, error, warning and muted text.
func NewTheme(accent, ok, bad, warn, muted string) *Theme {
	return &Theme{
		heading: fg(accent).Bold(true).MarginBottom(1),
		ok:      fg(ok).Bold(true),
		bad:     fg(bad).Bold(true),
		warn:    fg(warn),
		muted:   fg(muted).Italic(true),
		label:   fg(accent),
		badge:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).Background(lipgloss.Color(accent)).Padding(0, 1),
	}
}

func fg(c string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

var theme = NewTheme("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Title renders a heading followed by a blank line.
func Title(s string) string { return theme.heading.Render(s) }

func Success(s string) string { return theme.ok.Render(s) }

func Error(s string) string { return theme.bad.Render(s) }

func Warn(s string) string { return theme.warn.Render(s) }

// Help renders muted secondary text.
func Help(s string) string { return theme.muted.Render(s) }

// Badge renders a short inverse-colored tag such as "default".
func Badge(s string) string { return theme.badge.Render(s) }

// Field renders "label: value" with the label padded to width display columns.
func Field(label, value string, width int) string {
	l := label + ":"
	if pad := width - lipgloss.Width(l); pad > 0 {
		l += strings.Repeat(" ", pad)
	}
	return theme.label.Render(l) + " " + value
}
