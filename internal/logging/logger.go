package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"toursite-backend-go/internal/config"

	"github.com/rs/zerolog"
)

// New builds the process logger. Output goes to stdout and to a daily
// log file under cfg.Dir; the returned closer stops rotation and closes the file.
func New(cfg config.LogConfig, environment string) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil {
		level = parsed
	}

	files, err := NewDailyWriter(cfg.Dir, cfg.RetentionDays)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	var stdout io.Writer = os.Stdout
	if strings.EqualFold(cfg.Format, "console") {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(zerolog.MultiLevelWriter(stdout, files)).
		Level(level).
		With().
		Timestamp().
		Str("app", "toursite").
		Str("env", environment).
		Logger()
	return logger, files, nil
}

// DailyWriter appends to app-YYYY-MM-DD.log, switching files when the date
// changes and pruning files older than the retention window.
type DailyWriter struct {
	dir           string
	retentionDays int
	now           func() time.Time

	mu      sync.Mutex
	date    string
	current *os.File
}

func NewDailyWriter(dir string, retentionDays int) (*DailyWriter, error) {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	w := &DailyWriter{dir: dir, retentionDays: retentionDays, now: time.Now}
	if err := w.rotate(w.now().Format("2006-01-02")); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	date := w.now().Format("2006-01-02")
	if date != w.date {
		if err := w.rotate(date); err != nil {
			return 0, err
		}
	}
	return w.current.Write(p)
}

func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}

// rotate must be called with mu held (or before the writer is shared).
func (w *DailyWriter) rotate(date string) error {
	filename := filepath.Join(w.dir, fmt.Sprintf("app-%s.log", date))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if w.current != nil {
		_ = w.current.Close()
	}
	w.current = file
	w.date = date
	w.cleanup()
	return nil
}

func (w *DailyWriter) cleanup() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	cutoff := w.now().AddDate(0, 0, -(w.retentionDays - 1))
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		logDate, err := time.Parse("2006-01-02", datePart)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(w.dir, name))
		}
	}
}
