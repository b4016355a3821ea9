// Package style assigns agent types their rendering styles. The palette is
// a pure lookup table computed once from the dataset's distinct types and
// passed explicitly; there is no shared mutable color pool.
package style

import (
	"sort"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

// Style is the color pair for one agent type.
type Style struct {
	Color  string `json:"color"`
	Accent string `json:"accent"`
}

// DefaultStyle is used for types beyond the palette and for the empty type.
var DefaultStyle = Style{Color: "#8b949e", Accent: "#6e7681"}

// base rotation, one entry per distinct type in sorted order.
var base = []Style{
	{Color: "#58a6ff", Accent: "#1f6feb"},
	{Color: "#3fb950", Accent: "#238636"},
	{Color: "#d29922", Accent: "#9e6a03"},
	{Color: "#f778ba", Accent: "#bf4b8a"},
	{Color: "#a371f7", Accent: "#8957e5"},
	{Color: "#ff7b72", Accent: "#da3633"},
	{Color: "#39d2c0", Accent: "#1b9e8f"},
	{Color: "#e3b341", Accent: "#bb8009"},
}

// Palette maps agent types to styles deterministically: distinct types are
// sorted and assigned palette entries round-robin, so the same dataset
// always colors the same way.
type Palette struct {
	byType map[string]Style
}

// NewPalette builds a palette for the given types (duplicates are fine).
func NewPalette(types []string) *Palette {
	distinct := make(map[string]struct{}, len(types))
	for _, t := range types {
		if t != "" {
			distinct[t] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(distinct))
	for t := range distinct {
		ordered = append(ordered, t)
	}
	sort.Strings(ordered)

	byType := make(map[string]Style, len(ordered))
	for i, t := range ordered {
		byType[t] = base[i%len(base)]
	}
	return &Palette{byType: byType}
}

// FromSpans builds a palette from the dataset's distinct span types.
func FromSpans(spans []*timeline.AgentSpan) *Palette {
	types := make([]string, 0, len(spans))
	for _, s := range spans {
		if s != nil {
			types = append(types, s.Type)
		}
	}
	return NewPalette(types)
}

// For returns the style for an agent type, falling back to DefaultStyle.
func (p *Palette) For(agentType string) Style {
	if p == nil {
		return DefaultStyle
	}
	if s, ok := p.byType[agentType]; ok {
		return s
	}
	return DefaultStyle
}
