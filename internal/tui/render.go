package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// cell classes, one style per class.
const (
	cellEmpty = iota
	cellTrunk
	cellNow
	cellBatch
	cellMessage
	cellAgent
)

type cell struct {
	ch    rune
	class int
	agent int // index into frame.Agents for cellAgent
}

// renderCells rasterizes a frame into a rows x cols cell grid. Pure so the
// geometry can be tested without a terminal.
func renderCells(f timeline.Frame, cols, rows int) [][]cell {
	grid := make([][]cell, rows)
	for r := range grid {
		grid[r] = make([]cell, cols)
		for c := range grid[r] {
			grid[r][c] = cell{ch: ' ', class: cellEmpty}
		}
	}
	if rows == 0 || cols == 0 {
		return grid
	}

	put := func(row, col int, ch rune, class, agent int) {
		if row < 0 || row >= rows || col < 0 || col >= cols {
			return
		}
		grid[row][col] = cell{ch: ch, class: class, agent: agent}
	}
	toInt := func(v float64) int {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return -1
		}
		return int(math.Round(v))
	}

	// Trunk line across the top.
	trunkRow := toInt(f.TrunkY)
	for c := 0; c < cols; c++ {
		put(trunkRow, c, '─', cellTrunk, 0)
	}

	for _, b := range f.Batches {
		col := toInt(b.X)
		row := toInt(b.Y) + 1
		put(row, col, '┊', cellBatch, 0)
		label := fmt.Sprintf("batch %d (%d)", b.BatchNumber, b.AgentCount)
		for i, ch := range []rune(label) {
			put(row, col+2+i, ch, cellBatch, 0)
		}
	}

	for i, a := range f.Agents {
		row := toInt(a.Y1)
		x1, x2 := toInt(a.X1), toInt(a.X2)
		if x2 < x1 {
			x2 = x1
		}
		put(row, x1, '├', cellAgent, i)
		for c := x1 + 1; c <= x2; c++ {
			put(row, c, '━', cellAgent, i)
		}
		switch a.Status {
		case timeline.StatusError:
			put(row, x2, '✗', cellAgent, i)
		case timeline.StatusCompleted, timeline.StatusTerminated:
			put(row, x2, '┤', cellAgent, i)
		default:
			put(row, x2, '▶', cellAgent, i)
		}
		if a.Label != "" {
			label := truncate.StringWithTail(a.Label, 18, "…")
			for j, ch := range []rune(label) {
				put(row, x2+2+j, ch, cellAgent, i)
			}
		}
	}

	for _, msg := range f.Messages {
		put(toInt(msg.Y), toInt(msg.X), '●', cellMessage, 0)
	}

	// Now line over everything but agent bars.
	nowCol := toInt(f.NowX)
	if nowCol >= 0 && nowCol < cols {
		for r := 0; r < rows; r++ {
			if grid[r][nowCol].class == cellEmpty {
				put(r, nowCol, '│', cellNow, 0)
			}
		}
	}
	return grid
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= chromeRows {
		return "loading..."
	}

	var b strings.Builder
	title := fmt.Sprintf("agent timeline  session=%s  window=%s", m.session, m.window)
	b.WriteString(m.styles.Title.Render(truncate.String(title, uint(m.width))))
	b.WriteByte('\n')

	rows := m.height - chromeRows
	grid := renderCells(m.frame, m.width, rows)
	for _, row := range grid {
		b.WriteString(m.renderRow(row))
		b.WriteByte('\n')
	}

	b.WriteString(m.statusLine())
	if m.help.ShowAll {
		b.WriteByte('\n')
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	}
	return b.String()
}

// renderRow styles a row by grouping runs of equally-classed cells.
func (m Model) renderRow(row []cell) string {
	var out strings.Builder
	var run strings.Builder
	class, agent := row[0].class, row[0].agent
	for _, c := range row {
		if c.class != class || c.agent != agent {
			out.WriteString(m.cellStyle(cell{class: class, agent: agent}).Render(run.String()))
			run.Reset()
			class, agent = c.class, c.agent
		}
		run.WriteRune(c.ch)
	}
	out.WriteString(m.cellStyle(cell{class: class, agent: agent}).Render(run.String()))
	return out.String()
}

func (m Model) cellStyle(c cell) lipgloss.Style {
	switch c.class {
	case cellTrunk:
		return m.styles.Trunk
	case cellNow:
		return m.styles.NowLine
	case cellBatch:
		return m.styles.BatchMark
	case cellMessage:
		return m.styles.Message
	case cellAgent:
		if c.agent < len(m.frame.Agents) {
			return m.styles.agentStyle(m.frame.Agents[c.agent], m.color)
		}
	}
	return lipgloss.NewStyle()
}

func (m Model) statusLine() string {
	vp := m.eng.Viewport()
	stats := m.frame.Stats

	follow := m.styles.StatusBad.Render("follow off")
	if vp.FollowMode {
		follow = m.styles.StatusGood.Render("follow on")
	}
	line := fmt.Sprintf("zoom %.2fx  %s  agents %d/%d  msgs %d/%d  lanes %d",
		vp.Zoom, follow,
		stats.VisibleAgents, stats.TotalAgents,
		stats.VisibleMessages, stats.TotalMessages,
		stats.Lanes)
	if m.err != nil {
		line += "  " + m.styles.ErrorText.Render("feed: "+m.err.Error())
	}
	line += "  " + m.help.ShortHelpView(m.keys.ShortHelp())
	return m.styles.StatusBar.Render(truncate.String(line, uint(m.width)))
}
