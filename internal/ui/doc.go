// Package ui holds the terminal palette used by CLI output.
//
// Styles are plain [lipgloss.Style] values; rendering degrades to unstyled text when the
// output is not a terminal.
package ui
