package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/your-org/agent-timeline/internal/app"
	"github.com/your-org/agent-timeline/internal/scaffold"
	"github.com/your-org/agent-timeline/internal/version"
)

const defaultManifest = "manifests/timeline.example.yaml"

var rootCmd = &cobra.Command{
	Use:           "timeline",
	Short:         "Swimlane timeline dashboards for multi-agent sessions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTUICmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "timeline: %v\n", err)
		os.Exit(1)
	}
}

func signalContext(cmd *cobra.Command) func() {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	cmd.SetContext(ctx)
	return stop
}

func newServeCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the timeline daemon with the HTTP and WebSocket surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := signalContext(cmd)
			defer stop()
			return app.Run(cmd.Context(), manifestPath)
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", defaultManifest, "dashboard manifest path")
	return cmd
}

func newTUICmd() *cobra.Command {
	var (
		manifestPath string
		session      string
		noColor      bool
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Render a session as a full-screen terminal timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := signalContext(cmd)
			defer stop()
			color := !noColor && isatty.IsTerminal(os.Stdout.Fd())
			return app.RunTUI(cmd.Context(), manifestPath, session, color)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&manifestPath, "manifest", "m", defaultManifest, "dashboard manifest path")
	flags.StringVarP(&session, "session", "s", "", "session ID (defaults to the most recent)")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func newSnapshotCmd() *cobra.Command {
	var (
		manifestPath string
		session      string
		recordPath   string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print one laid-out frame as JSON and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunSnapshot(cmd.Context(), manifestPath, session, recordPath, cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&manifestPath, "manifest", "m", defaultManifest, "dashboard manifest path")
	flags.StringVarP(&session, "session", "s", "", "session ID (defaults to the most recent)")
	flags.StringVar(&recordPath, "record", "", "also save the pass as a replayable trace file")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a dashboard manifest without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ValidateManifest(manifestPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "manifest is valid: %s\n", manifestPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", defaultManifest, "dashboard manifest path")
	return cmd
}

func newReplayCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "replay <trace.json>",
		Short: "Re-run a recorded layout trace and compare frame hashes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ReplayTrace(cmd.Context(), manifestPath, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", defaultManifest, "dashboard manifest path")
	return cmd
}

func newInitCmd() *cobra.Command {
	var targetDir string

	cmd := &cobra.Command{
		Use:   "init <dashboard-name>",
		Short: "Scaffold a dashboard manifest with documented defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scaffold.Generate(targetDir, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scaffolded manifest for %s in %s/manifests\n", args[0], targetDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetDir, "dir", "d", ".", "target directory")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var (
		manifestPath string
		batches      int
		perBatch     int
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed the session store with a synthetic multi-agent session",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := app.DemoSpec{Batches: batches, PerBatch: perBatch, Seed: seed}
			return app.RunDemo(cmd.Context(), manifestPath, spec, cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&manifestPath, "manifest", "m", defaultManifest, "dashboard manifest path")
	flags.IntVar(&batches, "batches", 4, "number of spawn batches")
	flags.IntVar(&perBatch, "per-batch", 6, "agents per batch")
	flags.Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "import <run.jsonl>",
		Short: "Import an orchestrator run log into the session store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ImportLog(cmd.Context(), manifestPath, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", defaultManifest, "dashboard manifest path")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
