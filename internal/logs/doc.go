// Package logs reads back the bellastore log file for the "bellastore logs"
// command.
//
// Last returns the final lines of the file with bounded memory; Follow polls
// for appended lines until its context ends. Both accept a Filter so one run
// or one component can be isolated from a shared log.
package logs
