// Package cli wires configuration, the model lifecycle manager and the HTTP
// API into the embedd command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version is set at build time via -ldflags "-X embedd/internal/cli.Version=...".
var Version = "dev"

// MainWithArgs is a testable variant of Main that accepts args explicitly.
// It returns an exit code (0 for success, non-zero on error).
func MainWithArgs(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := buildRootCmdWith(&options{})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

// Main runs the command with os.Args until SIGINT or SIGTERM.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return MainWithArgs(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
