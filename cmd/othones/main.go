package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mavrogato/othones/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	os.Exit(cli.Report(os.Stderr, err))
}
