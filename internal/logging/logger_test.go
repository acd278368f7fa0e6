package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bellastore/internal/config"
	"bellastore/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(logging.LogFilePath(cfg.Paths.LogDir))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("log file missing message: %q", content)
	}
}

func TestConsoleLoggerFormatsComponentAndRunID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithRunID(context.Background(), "0a1b2c3d-0000-4000-8000-000000000000")
	ctx = logging.WithScan(ctx, "/staging/a.svs", "abc=")
	log := logging.WithContext(ctx, logging.NewComponentLogger(logger, "ingest"))
	log.Info("scan stored", logging.Int("bytes", 12))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INFO [0a1b2c3d] ingest: scan stored", `scan_hash="abc="`, "scan_path=/staging/a.svs", "bytes=12"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestJSONLoggerKeepsFullRunID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	runID := logging.NewRunID()
	logging.WithContext(logging.WithRunID(context.Background(), runID), logger).Info("run started")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("decode json log line: %v", err)
	}
	if record["run_id"] != runID {
		t.Fatalf("run_id = %v, want %s", record["run_id"], runID)
	}
	if record["level"] != "info" || record["msg"] != "run started" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "something odd", "odd_event")

	content, _ := os.ReadFile(logPath)
	for _, want := range []string{"event_type=odd_event", "error_hint=", "impact="} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestCleanupOldLogsKeepsActiveFile(t *testing.T) {
	dir := t.TempDir()
	active := logging.LogFilePath(dir)
	rotated := filepath.Join(dir, "bellastore.log.1")
	fresh := filepath.Join(dir, "bellastore.log.2")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{active, rotated, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	old := time.Now().AddDate(0, 0, -30)
	for _, p := range []string{active, rotated, other} {
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := logging.CleanupOldLogs(logging.NewNop(), dir, 7); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(rotated); !os.IsNotExist(err) {
		t.Fatalf("expected rotated log removed, stat err=%v", err)
	}
	for _, p := range []string{active, fresh, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}
