package dump

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title lipgloss.Style
	meta  lipgloss.Style
	kind  lipgloss.Style
	line  lipgloss.Style
	text  lipgloss.Style
	empty lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		meta:  r.NewStyle().Foreground(lipgloss.Color("245")),
		kind:  r.NewStyle().Foreground(lipgloss.Color("241")),
		line:  r.NewStyle().Foreground(lipgloss.Color("203")),
		text:  r.NewStyle().Foreground(lipgloss.Color("252")),
		empty: r.NewStyle().Faint(true),
	}
}
