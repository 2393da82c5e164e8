package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sidecar/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	code := services.ExitCode(err)
	switch {
	case code == services.ExitInterrupted:
		fmt.Fprintln(os.Stderr, "interrupted")
	case err != nil:
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(code)
}
