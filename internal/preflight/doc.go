// Package preflight checks that the store's directories are usable and
// guards the root against concurrent bellastore processes.
//
// Commands that mutate the store call AcquireRootLock before touching it;
// the "bellastore status" command uses RunAll to display directory health.
package preflight
