package tui

import (
	"testing"
	"time"

	"github.com/your-org/agent-timeline/internal/engine"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

func rowString(row []cell) string {
	out := make([]rune, len(row))
	for i, c := range row {
		out[i] = c.ch
	}
	return string(out)
}

func TestRenderCellsAgentBar(t *testing.T) {
	f := timeline.Frame{
		TrunkY: 0,
		NowX:   30,
		Agents: []timeline.AgentPath{
			{AgentID: "a1", X1: 5, Y1: 3, X2: 15, Y2: 3, Status: timeline.StatusInProgress},
			{AgentID: "a2", X1: 8, Y1: 4, X2: 20, Y2: 4, Status: timeline.StatusCompleted, Label: "worker"},
		},
	}
	grid := renderCells(f, 40, 8)

	for c := 0; c < 40; c++ {
		if grid[0][c].ch != '─' {
			t.Fatalf("trunk row not drawn at column %d: %q", c, rowString(grid[0]))
		}
	}

	if grid[3][5].ch != '├' {
		t.Fatalf("agent start marker missing: %q", rowString(grid[3]))
	}
	if grid[3][10].ch != '━' {
		t.Fatalf("agent bar missing at column 10: %q", rowString(grid[3]))
	}
	if grid[3][15].ch != '▶' {
		t.Fatalf("active agent must end with an arrow: %q", rowString(grid[3]))
	}

	if grid[4][20].ch != '┤' {
		t.Fatalf("completed agent must end with a cap: %q", rowString(grid[4]))
	}
	if grid[4][22].ch != 'w' {
		t.Fatalf("label not placed after the bar: %q", rowString(grid[4]))
	}

	// The now line fills empty cells in its column.
	if grid[6][30].ch != '│' {
		t.Fatalf("now line missing: %q", rowString(grid[6]))
	}
	// but never overdraws an agent bar.
	f.NowX = 10
	grid = renderCells(f, 40, 8)
	if grid[3][10].ch != '━' {
		t.Fatalf("now line must not overdraw agents: %q", rowString(grid[3]))
	}
}

func TestRenderCellsClipsOutOfRange(t *testing.T) {
	f := timeline.Frame{
		TrunkY: 0,
		NowX:   -5,
		Agents: []timeline.AgentPath{
			{AgentID: "off", X1: -100, Y1: 50, X2: -90, Y2: 50},
		},
		Messages: []timeline.MessagePoint{{MessageID: "m", X: 1000, Y: 1000}},
	}
	// Must not panic and must leave the grid clean.
	grid := renderCells(f, 20, 4)
	for r := 1; r < 4; r++ {
		for c := 0; c < 20; c++ {
			if grid[r][c].ch != ' ' {
				t.Fatalf("unexpected cell at %d,%d: %q", r, c, grid[r][c].ch)
			}
		}
	}
}

func TestEngineOptionsCellScale(t *testing.T) {
	opts := EngineOptions(engine.DefaultOptions())
	if opts.LaneHeight != 1 {
		t.Fatalf("lane height must be one row, got %v", opts.LaneHeight)
	}
	if opts.HeaderClearance != 2 {
		t.Fatalf("header clearance must shrink to cell scale, got %v", opts.HeaderClearance)
	}
	if opts.Margins.Left >= 120 {
		t.Fatalf("pixel margins must not survive, got %+v", opts.Margins)
	}
}

func TestModelLaysOutOnData(t *testing.T) {
	eng := engine.New(EngineOptions(engine.DefaultOptions()), nil, nil)
	m := New(eng, nil, "s1", timeline.Window1h, 100*time.Millisecond, false)
	m.width, m.height = 80, 24
	eng.SetExtent(80, 24-chromeRows)

	nowMs := time.Now().UnixMilli()
	updated, _ := m.Update(dataMsg{spans: []timeline.AgentSpan{
		{ID: "a1", SessionID: "s1", StartTime: nowMs - 60_000, Status: timeline.StatusInProgress},
	}})
	m = updated.(Model)
	if len(m.frame.Agents) != 1 {
		t.Fatalf("expected one laid-out agent, got %d", len(m.frame.Agents))
	}
	if len(m.agentOrder) != 1 || m.agentOrder[0] != "a1" {
		t.Fatalf("agent order not tracked: %v", m.agentOrder)
	}

	out := m.View()
	if out == "" {
		t.Fatal("view must render")
	}
}
