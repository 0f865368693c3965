package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-runs a Pipeline whenever files under root change. Bursts of
// events are coalesced: a run starts once no event has arrived for debounce.
type Watcher struct {
	pipeline *Pipeline
	root     string
	debounce time.Duration
	logger   *zap.Logger

	// OnRun, if set, is called after every triggered run.
	OnRun func(*Result, error)
}

// NewWatcher creates a watcher; call Run to start it.
func NewWatcher(p *Pipeline, root string, debounce time.Duration, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{pipeline: p, root: root, debounce: debounce, logger: logger}
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Watcher.Run: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := addTree(fw, w.root); err != nil {
		return fmt.Errorf("Watcher.Run: %w", err)
	}
	w.logger.Info("watching rule sources", zap.String("root", w.root), zap.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				// New subdirectories must be watched too; errors for plain files are expected.
				_ = addTree(fw, ev.Name)
			}
			w.logger.Debug("rule source changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			res, err := w.pipeline.Run(ctx, w.root)
			switch {
			case errors.Is(err, ErrIngestInProgress):
				timer.Reset(w.debounce)
			case err != nil:
				w.logger.Error("re-ingestion failed", zap.Error(err))
			}
			if w.OnRun != nil && !errors.Is(err, ErrIngestInProgress) {
				w.OnRun(res, err)
			}
		}
	}
}

// addTree watches dir and every directory below it.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
