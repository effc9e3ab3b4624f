// Command vocabd runs the vocabulary pipeline server. It exposes the
// pipeline, batch, and health endpoints over HTTP and shuts down
// gracefully on SIGINT/SIGTERM.
//
// Exit codes: 0 = clean shutdown, 1 = startup or serve error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Keith994/everyone-can-use-english/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "vocabd: %v\n", err)
		os.Exit(1)
	}
}
