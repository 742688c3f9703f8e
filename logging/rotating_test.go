package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC), "2025-W41"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W01"},
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-W01"},
	}

	for _, tt := range tests {
		if got := weekKey(tt.at); got != tt.want {
			t.Errorf("weekKey(%v) = %s, want %s", tt.at, got, tt.want)
		}
	}
}

func TestRotatingLoggerWritesAndRotates(t *testing.T) {
	dir := t.TempDir()

	rl, err := OpenRotatingLogger(dir, 1)
	if err != nil {
		t.Fatalf("OpenRotatingLogger failed: %v", err)
	}
	defer rl.Close()

	if _, err := rl.Write([]byte("first line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	current := filepath.Join(dir, "app-"+weekKey(time.Now())+".log")
	content, err := os.ReadFile(current)
	if err != nil {
		t.Fatalf("reading current log: %v", err)
	}
	if !strings.Contains(string(content), "first line") {
		t.Errorf("current log missing message: %q", content)
	}

	next := time.Now().AddDate(0, 0, 7)
	rl.mu.Lock()
	rl.now = func() time.Time { return next }
	rl.mu.Unlock()

	if _, err := rl.Write([]byte("next week\n")); err != nil {
		t.Fatalf("Write after week change failed: %v", err)
	}

	rotated := filepath.Join(dir, "app-"+weekKey(next)+".log")
	content, err = os.ReadFile(rotated)
	if err != nil {
		t.Fatalf("reading rotated log: %v", err)
	}
	if !strings.Contains(string(content), "next week") {
		t.Errorf("rotated log missing message: %q", content)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()

	rl, err := OpenRotatingLogger(dir, 1)
	if err != nil {
		t.Fatalf("OpenRotatingLogger failed: %v", err)
	}
	defer rl.Close()

	old := filepath.Join(dir, "app-2020-W01.log")
	unrelated := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, unrelated} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		stale := time.Now().Add(-30 * 24 * time.Hour)
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := rl.cleanupOldLogs()
	if err != nil {
		t.Fatalf("cleanupOldLogs failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old log file should be removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("non log file should be kept")
	}
}

func TestInitLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()

	InitLogger(dir, "warn", 2)
	defer func() {
		_ = Close()
		DefaultLoggingService = nil
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}()

	Debug("debug reaches the file", "id", "M1")

	content, err := os.ReadFile(filepath.Join(dir, "app-"+weekKey(time.Now())+".log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"debug reaches the file"`) {
		t.Errorf("expected JSON debug record in file, got: %s", content)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
