// Package main provides the entry point for the Ludoteca catalog server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/renovatuludoteca/ludoteca-server/internal/di"
	"github.com/renovatuludoteca/ludoteca-server/internal/logger"
)

func main() {
	injector := di.NewContainer(os.Args[1:])

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info("shutting down server gracefully", "signal", sig.String())

	// The container stops services in reverse dependency order: HTTP
	// server, scheduler, provider queue, search index, database.
	if err := injector.Shutdown(); err != nil {
		log.Fatal("shutdown error", "error", err)
	}

	log.Info("shutdown complete")
}
