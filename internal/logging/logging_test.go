package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hello", "k", "v")

	if _, err := os.Stat(filepath.Join(dir, "ptc.log")); err != nil {
		t.Fatalf("expected log file to be created: %v", err)
	}
}

func TestRotatingWriterRotatesPastMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ptc.log")
	w := &rotatingWriter{path: path, maxSize: 10, maxBackups: 2}

	if _, err := w.Write([]byte("0123456789")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.Write([]byte("more")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected a rotated backup to exist: %v", err)
	}
}
