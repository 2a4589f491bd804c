// Package filedrop ingests batch files dropped into a directory. Each record in a file is
// appended to the intake log; the file then moves to processed/ or, when it cannot be parsed, failed/.
package filedrop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"sales-pipeline/internal/intake/domain"
	"sales-pipeline/internal/telemetry"
)

const (
	processedDir    = "processed"
	failedDir       = "failed"
	defaultDebounce = 500 * time.Millisecond
	source          = "file_drop"
)

// Appender writes one payload to the intake log.
type Appender interface {
	Append(ctx context.Context, payload json.RawMessage) (*domain.IntakeRecord, error)
}

// Watcher watches one directory for batch files.
type Watcher struct {
	dir      string
	intake   Appender
	events   telemetry.EventEmitter
	logger   logrus.FieldLogger
	debounce time.Duration
}

// New returns a Watcher on dir. events may be nil.
func New(dir string, intake Appender, events telemetry.EventEmitter, logger logrus.FieldLogger) *Watcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Watcher{
		dir:      dir,
		intake:   intake,
		events:   events,
		logger:   logger.WithFields(logrus.Fields{"component": source, "dir": dir}),
		debounce: defaultDebounce,
	}
}

// Run ingests the files already in the directory, then every supported file created or written
// until ctx is done. Writes to one file are debounced so a file is read once it stops changing.
func (w *Watcher) Run(ctx context.Context) error {
	for _, sub := range []string{processedDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			return fmt.Errorf("filedrop: %w", err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filedrop: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("filedrop: watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for batch files")

	if err := w.scan(ctx); err != nil {
		w.logger.WithError(err).Warn("startup scan failed")
	}

	pending := map[string]*time.Timer{}
	ready := make(chan string, 16)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopped")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if filepath.Dir(ev.Name) != filepath.Clean(w.dir) || !supported(ev.Name) {
				continue
			}
			path := ev.Name
			if t, ok := pending[path]; ok {
				t.Reset(w.debounce)
				continue
			}
			pending[path] = time.AfterFunc(w.debounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watch error")
		case path := <-ready:
			delete(pending, path)
			if _, err := w.IngestFile(ctx, path); err != nil {
				w.logger.WithError(err).WithField("file", filepath.Base(path)).Error("ingest file failed")
			}
		}
	}
}

// scan ingests the supported files present in the directory, oldest name first.
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := w.IngestFile(ctx, filepath.Join(w.dir, name)); err != nil {
			w.logger.WithError(err).WithField("file", name).Error("ingest file failed")
		}
	}
	return nil
}

// IngestFile appends every record in path and returns how many were appended.
// A file that cannot be parsed moves to failed/ without appending anything. When the intake log
// rejects a write the file stays in place and is read again on the next change or restart, so
// records appended before the failure may be appended twice.
func (w *Watcher) IngestFile(ctx context.Context, path string) (int, error) {
	name := filepath.Base(path)
	logger := w.logger.WithField("file", name)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	records, err := parseFile(path)
	if err != nil {
		if mvErr := w.move(path, failedDir); mvErr != nil {
			logger.WithError(mvErr).Error("move to failed/ failed")
		}
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}

	for i, payload := range records {
		rec, err := w.intake.Append(ctx, payload)
		if err != nil {
			return i, fmt.Errorf("append record %d of %s: %w", i+1, name, err)
		}
		telemetry.EmitAsync(w.events, w.logger, telemetry.NewEvent(telemetry.EventRecordIngested, source, rec.ID))
	}

	if err := w.move(path, processedDir); err != nil {
		return len(records), err
	}
	logger.WithField("records", len(records)).Info("batch file ingested")
	return len(records), nil
}

func (w *Watcher) move(path, sub string) error {
	target := filepath.Join(w.dir, sub, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		target = fmt.Sprintf("%s.%d", target, time.Now().UnixNano())
	}
	return os.Rename(path, target)
}
