package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/lectern/internal/moodle"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "lectern: %s\n", describe(err))
		return 1
	}
	return 0
}

// describe turns gateway errors into the wording users act on.
func describe(err error) string {
	var remote *moodle.RemoteError
	switch {
	case errors.Is(err, moodle.ErrNotConfigured):
		return "not connected: run `lectern login`"
	case errors.As(err, &remote):
		return remote.Error()
	default:
		return err.Error()
	}
}
