package app

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/your-org/agent-timeline/internal/config"
	"github.com/your-org/agent-timeline/internal/feed"
	"github.com/your-org/agent-timeline/pkg/adapters"
)

// RunDemo seeds the manifest's session store with a synthetic session and
// prints its ID. The store must be writable, which every built-in source is.
func RunDemo(ctx context.Context, manifestPath string, spec DemoSpec, out io.Writer) error {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	source, closeSource, err := buildSource(manifest)
	if err != nil {
		return err
	}
	defer closeSource()

	writer, ok := source.(feed.Writer)
	if !ok {
		return fmt.Errorf("feed source %q is not writable", source.Name())
	}

	session, err := GenerateDemoSession(ctx, writer, spec)
	if err != nil {
		return err
	}

	total := spec.Batches * spec.PerBatch
	if total == 0 {
		total = 4 * 6
	}
	fmt.Fprintf(out, "seeded session %s with %s agents into %s\n",
		session, humanize.Comma(int64(total)), source.Name())
	return nil
}

// ImportLog loads an orchestrator run log into the manifest's session store
// and prints the imported session IDs.
func ImportLog(ctx context.Context, manifestPath, logPath string, out io.Writer) error {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	source, closeSource, err := buildSource(manifest)
	if err != nil {
		return err
	}
	defer closeSource()

	store, ok := source.(adapters.Store)
	if !ok {
		return fmt.Errorf("feed source %q is not writable", source.Name())
	}

	loader := adapters.NewAgentLogLoader()
	sessions, err := loader.Load(ctx, logPath, store)
	if err != nil {
		return fmt.Errorf("%s import: %w", loader.Name(), err)
	}

	fmt.Fprintf(out, "imported %s session(s) from %s:\n", humanize.Comma(int64(len(sessions))), logPath)
	for _, s := range sessions {
		fmt.Fprintf(out, "  %s\n", s)
	}
	return nil
}
