package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bellastore/internal/preflight"
)

// Exit codes let cron jobs tell a damaged store from a busy one.
const (
	exitFailure   = 1
	exitIntegrity = 2
	exitLocked    = 3
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errIntegrityFailed):
		return exitIntegrity
	case errors.Is(err, preflight.ErrRootLocked):
		return exitLocked
	default:
		return exitFailure
	}
}
