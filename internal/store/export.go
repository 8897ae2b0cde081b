package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportCSV writes every row to a timestamped CSV in dir and returns the
// written path. The file starts with a UTF-8 BOM so spreadsheet tools render
// non-ASCII paths and messages correctly; the status column carries the
// readable text, not the raw code.
func (s *Store) ExportCSV(dir string) (string, error) {
	tasks, err := s.ListAll()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("files_status_%s.csv", time.Now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString("\uFEFF"); err != nil {
		return "", fmt.Errorf("write bom: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"path", "status", "message", "worker_id", "start_time", "end_time"}); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, t := range tasks {
		record := []string{
			t.Path,
			t.Status.String(),
			t.Message,
			t.WorkerID,
			formatTime(t.StartTime),
			formatTime(t.EndTime),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush export: %w", err)
	}
	return path, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
