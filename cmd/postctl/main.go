// Package main is the entry point for the postctl CLI
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/klass-lk/postboot/internal/cli"
)

// set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cli.SetVersion(version)
	cli.SetCommit(commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()

	// Execute has already reported err on stderr.
	if err != nil {
		os.Exit(1)
	}
}
