// Package watcher reloads the index when its blob changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

const defaultDebounce = 250 * time.Millisecond

// Reloader is satisfied by *indexer.Engine.
type Reloader interface {
	Reload(ctx context.Context, trigger string) (*index.Snapshot, error)
}

// Watcher watches the directory holding the blob rather than the file
// itself, so atomic replace-by-rename is seen. Bursts of events are
// coalesced into one reload after the debounce interval.
type Watcher struct {
	reloader Reloader
	fsw      *fsnotify.Watcher
	dir      string
	target   string
	debounce time.Duration
	logger   *slog.Logger
}

// New watches cfg.Path when set, otherwise new containers in cfg.DataDir.
func New(reloader Reloader, cfg config.IndexConfig) (*Watcher, error) {
	w := &Watcher{
		reloader: reloader,
		debounce: cfg.Debounce,
		logger:   slog.Default().With("component", "index-watcher"),
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if cfg.Path != "" {
		abs, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", cfg.Path, err)
		}
		w.target = abs
		w.dir = filepath.Dir(abs)
	} else {
		abs, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", cfg.DataDir, err)
		}
		w.dir = abs
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.fsw = fsw
	return w, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	w.logger.Info("watching for index changes", "dir", w.dir, "file", w.target, "debounce", w.debounce)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("index file changed", "file", event.Name, "op", event.Op.String())
			fire = time.After(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			if _, err := w.reloader.Reload(ctx, "watch"); err != nil {
				w.logger.Warn("reload after change failed, keeping current snapshot", "error", err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	if w.target != "" {
		return name == w.target
	}
	return strings.HasSuffix(name, segment.FileExt)
}
