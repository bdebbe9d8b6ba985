// Package main is the entry point for the taskflow CLI.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/oauth2"

	"taskflow/internal/backend/restapi"
	"taskflow/internal/cli"
	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/service"
)

func main() {
	// Cancel on interrupt; devserver shuts down gracefully on it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context, cfg *config.Config, tokens oauth2.TokenSource, log *slog.Logger) (service.Service, error) {
		return restapi.New(cfg.APIURL,
			restapi.WithTokenSource(tokens),
			restapi.WithTimeout(cfg.Timeout),
			restapi.WithLogger(log),
		)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
