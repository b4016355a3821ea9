package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/your-org/agent-timeline/internal/config"
	"github.com/your-org/agent-timeline/internal/engine"
	"github.com/your-org/agent-timeline/internal/metrics"
	"github.com/your-org/agent-timeline/internal/tui"
)

// RunTUI renders one session as a full-screen terminal timeline. When
// session is empty the most recently active session is shown.
func RunTUI(ctx context.Context, manifestPath, session string, colorEnabled bool) error {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	source, closeSource, err := buildSource(manifest)
	if err != nil {
		return err
	}
	defer closeSource()

	if session == "" {
		session, err = pickSession(ctx, manifest, source)
		if err != nil {
			return err
		}
	}

	eng := engine.New(tui.EngineOptions(manifest.EngineOptions()), metrics.NewMemoryRecorder(), nil)

	model := tui.New(eng, source, session, manifest.Window(), manifest.RefreshInterval(), colorEnabled)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
