// Package logging provides the structured leveled logger used across ptc,
// wrapping log/slog's JSON handler over a rotating log file, optionally
// mirrored to stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"ptc/internal/infra/filestore"
)

const (
	maxLogSizeBytes = 10 * 1024 * 1024 // 10 MiB
	maxBackups      = 5
)

// New builds a logger that writes JSON lines to <stateDir>/ptc.log (rotated
// at maxLogSizeBytes, keeping maxBackups) and, when verbose is true, also
// mirrors the same JSON lines to stderr.
func New(stateDir string, verbose bool) (*slog.Logger, error) {
	logPath := filepath.Join(stateDir, "ptc.log")
	if err := filestore.EnsureParentDir(logPath); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	rotating := &rotatingWriter{path: logPath, maxSize: maxLogSizeBytes, maxBackups: maxBackups}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var writer io.Writer = rotating
	if verbose {
		writer = io.MultiWriter(rotating, os.Stderr)
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}

// rotatingWriter rotates the target file once it exceeds maxSize, keeping up
// to maxBackups numbered copies (ptc.log.1, ptc.log.2, ...), oldest dropped.
type rotatingWriter struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	size       int64
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size == 0 {
		if info, err := os.Stat(w.path); err == nil {
			w.size = info.Size()
		}
	}
	if w.size+int64(len(p)) > w.maxSize && w.size > 0 {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := f.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) rotate() error {
	for i := w.maxBackups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", w.path, i)
		dst := fmt.Sprintf("%s.%d", w.path, i+1)
		if _, err := os.Stat(src); err == nil {
			_ = os.Rename(src, dst)
		}
	}
	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return err
		}
	}
	w.size = 0
	return nil
}
