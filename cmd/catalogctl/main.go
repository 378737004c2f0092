// Package main provides catalogctl, the maintenance CLI for the Ludoteca catalog.
//
// It shares the server's configuration and dependency container but never
// starts the HTTP server or the scheduler.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/renovatuludoteca/ludoteca-server/internal/di"
)

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("catalogctl"),
		kong.Description("Maintain the Ludoteca board-game catalog."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := NewApp(ctx, di.NewContainer(nil), os.Stdout)
	runErr := kctx.Run(app)

	if err := app.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "catalogctl %s: %v\n", kctx.Command(), runErr)
		os.Exit(1)
	}
}
