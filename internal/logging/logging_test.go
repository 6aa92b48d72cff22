package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/waabox/sitedeck/internal/logging"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range cases {
		got, err := logging.ParseLevel(name)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", name, err)
		}
		if got != want {
			t.Errorf("%q: want %v, got %v", name, want, got)
		}
	}
	if _, err := logging.ParseLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "attempt", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "attempt=3") {
		t.Errorf("expected warn line with attrs, got %q", out)
	}
}

func TestOpenFile_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sitedeck.log")
	logger, closer, err := logging.OpenFile(path, "info")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hello")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("expected log line in file, got %q", data)
	}
}
