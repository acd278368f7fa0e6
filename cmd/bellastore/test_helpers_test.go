package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bellastore/internal/config"
	"bellastore/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("BELLASTORE_ROOT", "")
	t.Setenv("BELLASTORE_STAGING", "")

	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.StagingDir, 0o755); err != nil {
		t.Fatalf("mkdir staging: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "bellastore", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nroot_dir = %q\nstaging_dir = %q\nlog_dir = %q\n\n[ingest]\nworkers = 2\n\n[backup]\nmax_backups = 2\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.RootDir,
		cfg.Paths.StagingDir,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) stage(t *testing.T, rel, content string) string {
	t.Helper()
	return testsupport.WriteScan(t, filepath.Join(e.cfg.Paths.StagingDir, filepath.FromSlash(rel)), content)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
