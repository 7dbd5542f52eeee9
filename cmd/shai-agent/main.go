package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/doeshing/shai-agent/internal/infrastructure/cli"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			code = 1
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cli.Options{Verbose: isVerbose()}
	err := cli.Execute(ctx, opts, os.Args[1:])
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stdout, "\nShutting down gracefully...")
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func isVerbose() bool {
	v := os.Getenv("SHAI_AGENT_DEBUG")
	return strings.EqualFold(v, "1") || strings.EqualFold(v, "true")
}
