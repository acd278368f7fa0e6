package preflight

import (
	"bellastore/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks every directory of the store layout. The staging directory
// is only checked when configured.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Root directory", cfg.Paths.RootDir),
		CheckDirectoryAccess("Storage directory", cfg.StorageDir()),
		CheckDirectoryAccess("Backup directory", cfg.BackupDir()),
	}
	if cfg.Paths.StagingDir != "" {
		results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
