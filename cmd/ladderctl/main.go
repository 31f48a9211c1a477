package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/ladder/internal/ladderctl"
	"github.com/okian/ladder/pkg/logger"
)

func main() {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if lvl := os.Getenv("LADDER_LOG_LEVEL"); lvl != "" {
		_ = logger.SetLevelString(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := ladderctl.Run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
