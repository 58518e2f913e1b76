package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ladzaretti/bunker/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	cli.Execute(ctx)
}
