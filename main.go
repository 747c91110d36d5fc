package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/querydoctor/querydoctor/pkg/cli"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := cli.Execute(ctx, Version)

	stop()
	os.Exit(code)
}
