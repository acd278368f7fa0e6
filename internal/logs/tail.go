package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const maxLineBytes = 1024 * 1024

// Filter selects log lines. Zero fields match everything.
type Filter struct {
	// RunID matches either the full run ID (JSON logs) or its first group
	// (console logs).
	RunID     string
	Component string
}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.RunID != "" {
		short, _, _ := strings.Cut(f.RunID, "-")
		if !strings.Contains(line, "["+short+"]") && !strings.Contains(line, `"run_id":"`+f.RunID) {
			return false
		}
	}
	if f.Component != "" {
		if !strings.Contains(line, " "+f.Component+": ") && !strings.Contains(line, `"component":"`+f.Component+`"`) {
			return false
		}
	}
	return true
}

// Last returns up to limit matching lines from the end of path and the
// offset just past them. A missing file yields no lines.
func Last(path string, limit int, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ring := make([]string, limit)
	count := 0
	idx := 0
	var offset int64
	for scanner.Scan() {
		line := scanner.Text()
		offset += int64(len(scanner.Bytes())) + 1
		if !filter.Match(line) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	if offset > info.Size() {
		offset = info.Size()
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Follow emits matching lines appended to path after offset, polling every
// interval until ctx ends. A file that shrinks is read again from the start.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, filter Filter, emit func(string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		info, err := os.Stat(path)
		switch {
		case err == nil:
			if info.Size() < offset {
				offset = 0
			}
			lines, next, err := readForward(path, offset)
			if err != nil {
				return err
			}
			offset = next
			for _, line := range lines {
				if filter.Match(line) {
					emit(line)
				}
			}
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("stat log file: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// readForward returns the complete lines after offset. A trailing partial
// line is left for the next read.
func readForward(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var lines []string
	for {
		chunk, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(chunk))
		lines = append(lines, strings.TrimRight(chunk, "\r\n"))
	}
	return lines, offset, nil
}
