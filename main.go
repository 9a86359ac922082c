package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/imishinist/graphalytics-kgraphs/cmd"
)

func main() {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
		select {
		case <-sigCh:
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if err := cmd.ExecuteContext(ctx); err != nil {
		cancelFn()
		os.Exit(1)
	}
}
