// Package index scans the files root into the catalog and keeps it
// current through filesystem notifications.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/timelane/timelane/internal/config"
	"github.com/timelane/timelane/internal/events"
	"github.com/timelane/timelane/internal/store"
	"github.com/timelane/timelane/internal/timeline"
	"github.com/timelane/timelane/internal/util"
)

// rescanWindow collapses bursts of directory events into one sweep.
const rescanWindow = 750 * time.Millisecond

// Indexer walks the files root, records every file in the catalog, and
// watches for changes.
type Indexer struct {
	cfg    *config.Config
	store  *store.Store
	bus    *events.Bus
	thumbs *Thumbnailer
	log    *slog.Logger

	watcher *fsnotify.Watcher
	rescan  *util.Debounced

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// New creates an indexer over the configured files root.
func New(cfg *config.Config, st *store.Store, bus *events.Bus, logger *slog.Logger) (*Indexer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Indexer{
		cfg:    cfg,
		store:  st,
		bus:    bus,
		thumbs: NewThumbnailer(cfg.ThumbsDir()),
		log:    logger.With("component", "indexer"),
		done:   make(chan struct{}),
	}
	ix.rescan = util.Debounce(func() {
		if err := ix.ScanAll(context.Background()); err != nil {
			ix.log.Error("rescan failed", "error", err)
		}
	}, rescanWindow)
	return ix, nil
}

// Start performs the initial scan and, when watching is enabled, begins
// following filesystem events.
func (ix *Indexer) Start(ctx context.Context) error {
	ix.log.Info("starting indexer", "root", ix.cfg.FilesRoot)

	if err := ix.ScanAll(ctx); err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}

	if !ix.cfg.Watch {
		close(ix.done)
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	ix.watcher = w

	if err := ix.addWatchRecursive(ix.cfg.FilesRoot); err != nil {
		w.Close()
		return fmt.Errorf("watch root: %w", err)
	}

	go ix.watchLoop(ctx)
	return nil
}

// Stop shuts the watcher down and waits for the event loop to drain.
func (ix *Indexer) Stop() error {
	ix.mu.Lock()
	if ix.stopped {
		ix.mu.Unlock()
		return nil
	}
	ix.stopped = true
	ix.mu.Unlock()

	ix.rescan.Cancel()
	if ix.watcher != nil {
		if err := ix.watcher.Close(); err != nil {
			return fmt.Errorf("close watcher: %w", err)
		}
		<-ix.done
	}
	ix.log.Info("indexer stopped")
	return nil
}

// ScanAll walks the files root, indexes every visible file, and prunes
// catalog rows whose files are gone. A scan_complete event is published
// once the sweep finishes.
func (ix *Indexer) ScanAll(ctx context.Context) error {
	start := time.Now()
	seen := make(map[string]struct{})
	var indexed int

	err := filepath.Walk(ix.cfg.FilesRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			ix.log.Warn("scan error", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			if path != ix.cfg.FilesRoot && SkipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsHidden(info.Name()) {
			return nil
		}

		seen[path] = struct{}{}
		if err := ix.indexFile(path, info); err != nil {
			ix.log.Warn("index failed", "path", path, "error", err)
		} else {
			indexed++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", ix.cfg.FilesRoot, err)
	}

	removed, err := ix.store.PruneMissing(seen)
	if err != nil {
		return fmt.Errorf("prune catalog: %w", err)
	}
	for _, path := range removed {
		ix.bus.Publish(events.Event{Type: events.FileRemoved, Path: path})
	}

	ix.cleanupThumbs()

	total, err := ix.store.Count()
	if err != nil {
		return err
	}
	ix.log.Info("scan complete",
		"indexed", indexed, "removed", len(removed),
		"total", total, "elapsed", time.Since(start))
	ix.bus.Publish(events.Event{Type: events.ScanComplete, Count: total})
	return nil
}

// indexFile records a single file in the catalog. Unchanged files are
// skipped based on their content hash.
func (ix *Indexer) indexFile(path string, info os.FileInfo) error {
	if info == nil {
		var err error
		info, err = os.Stat(path)
		if err != nil {
			return err
		}
	}
	if info.IsDir() {
		return nil
	}

	hash, err := HashFile(path)
	if err != nil {
		return err
	}

	existing, err := ix.store.GetByPath(path)
	switch {
	case err == nil && existing.Hash == hash:
		return nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}

	mimeType := DetectMime(path)
	ext := filepath.Ext(info.Name())
	rec := timeline.FileRecord{
		ID:         existing.ID,
		AbsPath:    path,
		Name:       info.Name(),
		Ext:        ext,
		Mime:       mimeType,
		Kind:       timeline.ClassifyKind(mimeType, ext),
		Size:       info.Size(),
		CreatedAt:  info.ModTime().UTC(),
		Hash:       hash,
		HasPreview: IsPreviewable(mimeType),
	}
	isNew := rec.ID == ""
	if isNew {
		rec.ID = uuid.NewString()
	}

	hasThumb, err := ix.thumbs.Generate(rec.ID, path, mimeType)
	if err != nil {
		ix.log.Warn("thumbnail failed", "path", path, "error", err)
	}
	rec.HasThumbnail = hasThumb

	if err := ix.store.Upsert(rec); err != nil {
		return err
	}

	eventType := events.FileChanged
	if isNew {
		eventType = events.FileAdded
	}
	ix.bus.Publish(events.Event{Type: eventType, FileID: rec.ID, Path: path})
	return nil
}

// removeFile drops a vanished path from the catalog and its thumbnail
// from disk.
func (ix *Indexer) removeFile(path string) {
	existing, err := ix.store.GetByPath(path)
	if err != nil {
		return
	}
	if err := ix.thumbs.Delete(existing.ID); err != nil {
		ix.log.Warn("thumbnail cleanup failed", "path", path, "error", err)
	}
	if err := ix.store.DeleteByPath(path); err != nil {
		ix.log.Warn("catalog delete failed", "path", path, "error", err)
		return
	}
	ix.bus.Publish(events.Event{Type: events.FileRemoved, FileID: existing.ID, Path: path})
}

func (ix *Indexer) watchLoop(ctx context.Context) {
	defer close(ix.done)
	for {
		select {
		case ev, ok := <-ix.watcher.Events:
			if !ok {
				return
			}
			ix.handleEvent(ev)
		case err, ok := <-ix.watcher.Errors:
			if !ok {
				return
			}
			ix.log.Warn("watcher error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

func (ix *Indexer) handleEvent(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if IsHidden(name) || SkipDir(name) {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// A new directory may already contain files copied in
			// before the watch was attached.
			if err := ix.addWatchRecursive(ev.Name); err != nil {
				ix.log.Warn("watch new dir failed", "path", ev.Name, "error", err)
			}
			ix.rescan.Call()
			return
		}
		if err := ix.indexFile(ev.Name, info); err != nil {
			ix.log.Warn("index failed", "path", ev.Name, "error", err)
		}
	case ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return
		}
		if err := ix.indexFile(ev.Name, info); err != nil {
			ix.log.Warn("reindex failed", "path", ev.Name, "error", err)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		ix.removeFile(ev.Name)
	}
}

func (ix *Indexer) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && SkipDir(info.Name()) {
			return filepath.SkipDir
		}
		if err := ix.watcher.Add(path); err != nil {
			ix.log.Warn("watch failed", "path", path, "error", err)
		}
		return nil
	})
}

func (ix *Indexer) cleanupThumbs() {
	res, err := ix.store.List(timeline.Filters{Page: 1, PageSize: 1 << 30})
	if err != nil {
		ix.log.Warn("thumbnail cleanup skipped", "error", err)
		return
	}
	keep := make(map[string]struct{}, len(res.Items))
	for _, item := range res.Items {
		keep[item.ID] = struct{}{}
	}
	if err := ix.thumbs.CleanupOrphans(keep); err != nil {
		ix.log.Warn("thumbnail cleanup failed", "error", err)
	}
}
