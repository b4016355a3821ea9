package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/your-org/agent-timeline/internal/app"
)

func main() {
	manifestPath := "manifests/timeline.example.yaml"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	if v := os.Getenv("MANIFEST_PATH"); v != "" {
		manifestPath = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, manifestPath); err != nil {
		fmt.Fprintf(os.Stderr, "timelined failed: %v\n", err)
		os.Exit(1)
	}
}
