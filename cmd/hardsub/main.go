package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Interrupting a local burn cancels ffmpeg and still cleans the scratch
	// directory; the bot runtime layers its own shutdown on the same signals.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "hardsub: interrupted")
	} else {
		fmt.Fprintf(os.Stderr, "hardsub: %v\n", err)
	}
	os.Exit(1)
}
