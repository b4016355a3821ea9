package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

type styles struct {
	Title      lipgloss.Style
	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	Trunk      lipgloss.Style
	NowLine    lipgloss.Style
	BatchMark  lipgloss.Style
	Message    lipgloss.Style
	Selected   lipgloss.Style
	ErrorText  lipgloss.Style
	StatusGood lipgloss.Style
	StatusBad  lipgloss.Style
}

func newStyles(colorEnabled bool) styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return styles{
			Title: plain.Bold(true), StatusBar: plain, StatusKey: plain,
			Trunk: plain, NowLine: plain, BatchMark: plain, Message: plain,
			Selected: plain.Reverse(true), ErrorText: plain,
			StatusGood: plain, StatusBad: plain,
		}
	}
	return styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58a6ff")),
		StatusBar:  lipgloss.NewStyle().Faint(true),
		StatusKey:  lipgloss.NewStyle().Bold(true),
		Trunk:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		NowLine:    lipgloss.NewStyle().Foreground(lipgloss.Color("#d29922")),
		BatchMark:  lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e")),
		Message:    lipgloss.NewStyle().Foreground(lipgloss.Color("#e3b341")),
		Selected:   lipgloss.NewStyle().Reverse(true),
		ErrorText:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ff7b72")),
		StatusGood: lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950")),
		StatusBad:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ff7b72")),
	}
}

// agentStyle renders one agent bar in the agent's assigned color, dimmed
// for terminated agents and highlighted when selected.
func (s styles) agentStyle(p timeline.AgentPath, colorEnabled bool) lipgloss.Style {
	st := lipgloss.NewStyle()
	if colorEnabled && p.Color != "" {
		st = st.Foreground(lipgloss.Color(p.Color))
	}
	switch p.Status {
	case timeline.StatusError:
		st = st.Bold(true)
	case timeline.StatusTerminated:
		st = st.Faint(true)
	}
	if p.Selected {
		st = st.Reverse(true)
	}
	return st
}
