// Package logging provides tests for logger construction and session logs.
package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"WARN", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"bogus", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "debug", Format: "logfmt", Output: &buf})
	logger.Info("task added", "id", "abc")

	out := buf.String()
	if !strings.Contains(out, "task added") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "id=abc") {
		t.Errorf("expected logfmt field in output, got %q", out)
	}
	if !strings.Contains(out, DefaultPrefix) {
		t.Errorf("expected prefix in output, got %q", out)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "error", Output: &buf})
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("expected a logger")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Error("expected the given logger back")
	}
}

func TestSessionLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	s, err := NewSessionLog(dir)
	if err != nil {
		t.Fatalf("NewSessionLog: %v", err)
	}
	defer s.Close()

	if _, err := s.Writer().Write([]byte("line\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	latest, err := FindLatestLog(dir)
	if err != nil {
		t.Fatalf("FindLatestLog: %v", err)
	}
	if latest != s.LogPath {
		t.Errorf("latest: got %s, want %s", latest, s.LogPath)
	}

	if _, err := NewSessionLog(""); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestFindLatestLogMissingDir(t *testing.T) {
	got, err := FindLatestLog(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty path, got %q", got)
	}
}

func TestFindLatestLogPicksNewest(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "a.log")
	newer := filepath.Join(dir, "b.log")
	for _, p := range []string{older, newer, filepath.Join(dir, "ignored.txt")} {
		if err := os.WriteFile(p, []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	got, err := FindLatestLog(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != newer {
		t.Errorf("got %s, want %s", got, newer)
	}
}

func TestTailLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	content := "one\ntwo\nthree\nfour\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		n    int
		want string
	}{
		{0, content},
		{2, "three\nfour\n"},
		{1, "four\n"},
		{10, content},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := TailLog(context.Background(), &buf, path, tt.n, false); err != nil {
			t.Fatalf("TailLog(n=%d): %v", tt.n, err)
		}
		if buf.String() != tt.want {
			t.Errorf("TailLog(n=%d) = %q, want %q", tt.n, buf.String(), tt.want)
		}
	}
}

func TestTailLogMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := TailLog(context.Background(), &buf, filepath.Join(t.TempDir(), "x.log"), 5, false); err == nil {
		t.Error("expected error for missing file")
	}
}
