// Package logging configures the process-wide logrus logger and keeps an
// in-memory copy of every entry so the run log can be exported at teardown.
// Logging is observability only: nothing here returns an error to callers on
// the processing path.
package logging

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// L is the shared logger. Packages log through it rather than wiring a logger
// through every constructor; the pipeline treats it as fire-and-forget.
var L = logrus.New()

type capturedEntry struct {
	Time    time.Time
	Level   string
	Message string
}

// captureHook records entries for the CSV export.
type captureHook struct {
	mu      sync.Mutex
	entries []capturedEntry
}

func (h *captureHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *captureHook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, capturedEntry{Time: e.Time, Level: e.Level.String(), Message: e.Message})
	return nil
}

func (h *captureHook) snapshot() []capturedEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]capturedEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

var (
	hook     = &captureHook{}
	hookOnce sync.Once
)

// Init sets the log level and formatter and installs the capture hook.
// Calling it again only adjusts the level.
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	L.SetLevel(lvl)
	L.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	hookOnce.Do(func() {
		L.AddHook(hook)
	})
}

// ExportCSV writes the captured log entries to a timestamped CSV in dir.
// The file starts with a UTF-8 BOM so spreadsheet tools render non-ASCII
// messages correctly. Returns the written path.
func ExportCSV(dir string) (string, error) {
	entries := hook.snapshot()
	path := filepath.Join(dir, fmt.Sprintf("run_log_%s.csv", time.Now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create log export: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString("\uFEFF"); err != nil {
		return "", fmt.Errorf("write bom: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "level", "message"}); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Message}); err != nil {
			return "", fmt.Errorf("write entry: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush log export: %w", err)
	}
	return path, nil
}
