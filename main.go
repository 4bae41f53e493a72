package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"imgconv/convert"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitNoInput = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil && !errors.Is(err, errBatchFailed) {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	}
	os.Exit(exitCode(err))
}

// exitCode maps a run error to the process status. A batch with failed files
// and a fatal startup error both exit 1; an empty batch exits 2.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, convert.ErrNoMatchingFiles):
		return exitNoInput
	default:
		return exitFailure
	}
}
