// Command nit is the CLI entrypoint: detect, generate, verify-fix,
// drift, audit, and bootstrap, dispatched onto internal/orchestrator
// (spec.md §6's CLI surface; exit codes 0/1/2/130).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "nit:", err)
		return exitCodeFor(err)
	}
	return 0
}
