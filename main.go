package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/containify/containify/cmd"
	"github.com/containify/containify/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		os.Exit(errors.GetExitCode(err))
	}
}
