// Package tui renders the swimlane timeline in a terminal. The layout
// engine runs at cell resolution: one text row per lane, one column per
// character, so the same geometry core drives both the HTTP frames and the
// terminal view.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/your-org/agent-timeline/internal/engine"
	"github.com/your-org/agent-timeline/internal/feed"
	"github.com/your-org/agent-timeline/internal/view"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

// chromeRows is the vertical space reserved for the title and status bars.
const chromeRows = 3

// EngineOptions rescales the engine geometry from pixels to terminal cells.
func EngineOptions(base engine.Options) engine.Options {
	if base.LaneHeight <= 0 {
		base = engine.DefaultOptions()
	}
	base.LaneHeight = 1
	base.TrunkY = 0
	base.HeaderClearance = 2
	base.Margins = timeline.Margins{Left: 24, Right: 2}
	base.OverscanPx = 2
	return base
}

type tickMsg time.Time

type dataMsg struct {
	spans []timeline.AgentSpan
	msgs  []timeline.MessageEvent
	err   error
}

// Model is the bubbletea model for the timeline view.
type Model struct {
	eng     *engine.Engine
	source  feed.Source
	session string
	window  timeline.Window
	refresh time.Duration

	keys   keyMap
	help   help.Model
	styles styles
	color  bool

	width  int
	height int
	frame  timeline.Frame
	err    error

	// visible agent order of the last frame, for tab selection.
	agentOrder []string
	selected   int

	lodForced bool
}

func New(eng *engine.Engine, source feed.Source, session string, window timeline.Window, refresh time.Duration, colorEnabled bool) Model {
	if refresh <= 0 {
		refresh = 500 * time.Millisecond
	}
	eng.SetSession(session)
	eng.SetWindow(window, time.Now().UnixMilli())
	return Model{
		eng:      eng,
		source:   source,
		session:  session,
		window:   window,
		refresh:  refresh,
		keys:     defaultKeyMap(),
		help:     help.New(),
		styles:   newStyles(colorEnabled),
		color:    colorEnabled,
		selected: -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.fetch())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) fetch() tea.Cmd {
	source, session, window := m.source, m.session, m.window
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tr := window.Range(time.Now().UnixMilli())
		spans, msgs, err := source.FetchWindow(ctx, session, tr.Start, tr.End)
		return dataMsg{spans: spans, msgs: msgs, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.eng.SetExtent(float64(msg.Width), float64(msg.Height-chromeRows))
		m.relayout()
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		m.eng.TickAutoPan(now.UnixMilli(), now)
		m.relayout()
		return m, tea.Batch(m.tick(), m.fetch())

	case dataMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.eng.SetData(msg.spans, msg.msgs)
		m.relayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.ZoomIn):
		m.eng.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.eng.ZoomOut()
	case key.Matches(msg, m.keys.PanLeft):
		m.eng.Pan(8, 0)
	case key.Matches(msg, m.keys.PanRight):
		m.eng.Pan(-8, 0)
	case key.Matches(msg, m.keys.PanUp):
		m.eng.Pan(0, 2)
	case key.Matches(msg, m.keys.PanDown):
		m.eng.Pan(0, -2)
	case key.Matches(msg, m.keys.Follow):
		m.eng.SetFollowMode(!m.eng.Viewport().FollowMode)
	case key.Matches(msg, m.keys.Window):
		m.window = m.window.Next()
		m.eng.SetWindow(m.window, time.Now().UnixMilli())
		return m, m.fetch()
	case key.Matches(msg, m.keys.ResetView):
		m.eng.ResetView()
	case key.Matches(msg, m.keys.NextAgent):
		m.cycleSelection(1)
	case key.Matches(msg, m.keys.PrevAgent):
		m.cycleSelection(-1)
	case key.Matches(msg, m.keys.ClearSel):
		m.selected = -1
		m.eng.ClearSelection()
	case key.Matches(msg, m.keys.CycleLOD):
		if m.lodForced {
			m.eng.ResetLOD()
		} else {
			m.eng.ForceLODMode(view.ModePerformance)
		}
		m.lodForced = !m.lodForced
	}
	m.relayout()
	return m, nil
}

func (m *Model) cycleSelection(dir int) {
	if len(m.agentOrder) == 0 {
		return
	}
	m.selected += dir
	if m.selected >= len(m.agentOrder) {
		m.selected = 0
	}
	if m.selected < 0 {
		m.selected = len(m.agentOrder) - 1
	}
	m.eng.SelectAgent(m.agentOrder[m.selected])
}

func (m *Model) relayout() {
	if m.width <= 0 {
		return
	}
	m.frame = m.eng.Layout(time.Now().UnixMilli())
	m.agentOrder = m.agentOrder[:0]
	for _, a := range m.frame.Agents {
		m.agentOrder = append(m.agentOrder, a.AgentID)
	}
}
