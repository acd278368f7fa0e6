// Package main hosts the bellastore CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, takes the root lock
// for commands that change the store, and hands the work to the internal
// packages. Keep this package lean: new behavior belongs in internal/ first
// and is surfaced here through a command or flag.
package main
