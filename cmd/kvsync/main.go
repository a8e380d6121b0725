package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiotviet-integration/kvsync/internal/adapters/driving/cli"
	"github.com/kiotviet-integration/kvsync/internal/app"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(app.Build)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
