package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
)

// BrowserOpener hands URLs to the platform's default handler. When Out is
// set the URL is also printed there, so it stays usable over SSH.
type BrowserOpener struct {
	Out    io.Writer
	Logger *slog.Logger
	// command is swapped in tests.
	command func(url string) *exec.Cmd
}

// Open launches the browser for url without waiting for it to exit. The
// launcher is not tied to the caller's context.
func (o *BrowserOpener) Open(_ context.Context, url string) error {
	if o.Out != nil {
		fmt.Fprintln(o.Out, url)
	}
	build := o.command
	if build == nil {
		build = platformCommand
	}
	cmd := build(url)
	if cmd == nil {
		return nil
	}
	if err := cmd.Start(); err != nil {
		// The printed URL is enough on machines without a launcher.
		if o.Out != nil && errors.Is(err, exec.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("open %s: %w", url, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil && o.Logger != nil {
			o.Logger.Debug("browser command exited", "error", err)
		}
	}()
	return nil
}

func platformCommand(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.Command("xdg-open", url)
	}
}
