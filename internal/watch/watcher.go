// Package watch embeds files as they are created or modified under a directory tree.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"docembed/internal/embedding"
	"docembed/internal/service"
)

// DefaultDebounce is how long a path must stay quiet before it is embedded.
const DefaultDebounce = 200 * time.Millisecond

// FileEmbedder is the subset of the embedding service the watcher needs.
type FileEmbedder interface {
	EmbedFiles(ctx context.Context, patterns []string, req service.Request) ([]service.FileEmbedding, error)
	Accepts(path string) bool
}

// Event reports the outcome of embedding one changed file.
type Event struct {
	Path      string
	Embedding embedding.Embedding
	Err       error
}

// Watcher continuously monitors a directory for file changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	svc      FileEmbedder
	req      service.Request
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a Watcher that embeds changed files through svc using
// the provider selected by req. A zero debounce means DefaultDebounce.
func NewWatcher(svc FileEmbedder, req service.Request, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsnWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{watcher: fsnWatcher, svc: svc, req: req, debounce: debounce, logger: logger}, nil
}

// Add walks root and watches it and every subdirectory.
func (w *Watcher) Add(root string) error {
	if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	}); err != nil {
		return err
	}
	w.logger.Info("Started watching directory", "root", root)
	return nil
}

// Run handles file events until ctx is done, sending one Event per embedded
// file to events. It closes the underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context, events chan<- Event) error {
	defer w.watcher.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.logger.Debug("File event", "path", event.Name, "op", event.Op.String())
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if err := w.Add(event.Name); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
				}
				continue
			}
			if !w.svc.Accepts(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			for _, ev := range w.flush(ctx, pending) {
				select {
				case events <- ev:
				case <-ctx.Done():
					return nil
				}
			}
			clear(pending)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("Watcher dropped events", "error", err)
				continue
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

// flush embeds each pending path on its own so one bad file does not hide
// the others.
func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) []Event {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]Event, 0, len(paths))
	for _, p := range paths {
		files, err := w.svc.EmbedFiles(ctx, []string{p}, w.req)
		if err != nil {
			w.logger.Error("Failed to embed file", "path", p, "error", err)
			out = append(out, Event{Path: p, Err: err})
			continue
		}
		out = append(out, Event{Path: p, Embedding: files[0].Embedding})
	}
	return out
}
