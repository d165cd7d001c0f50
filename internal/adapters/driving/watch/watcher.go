// Package watch ingests documents dropped into an upload directory. Each
// file created or rewritten there is treated as one upload event.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
	"github.com/custodia-labs/scribe/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
// Editors and copy tools often emit several writes per save.
const DefaultDebounce = 500 * time.Millisecond

// Result reports the outcome of one upload.
type Result struct {
	Path   string
	Result *domain.IngestResult
	Err    error
}

// Watcher turns filesystem events in one directory into ingestion runs.
type Watcher struct {
	dir      string
	ingest   driving.IngestService
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New creates a watcher for dir.
func New(dir string, ingest driving.IngestService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		ingest:   ingest,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the directory until ctx is done, calling onResult after each
// ingestion. Uploads are ingested one at a time in arrival order.
func (w *Watcher) Run(ctx context.Context, onResult func(Result)) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("%w: upload directory: %v", domain.ErrValidation, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrValidation, w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	ready := make(chan string, 16)
	defer w.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleFsEvent(event); ok {
				w.schedule(ctx, path, ready)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case path := <-ready:
			res := w.ingestFile(ctx, path)
			if onResult != nil {
				onResult(res)
			}
		}
	}
}

// handleFsEvent returns the path to ingest for an event, if any. Removals,
// renames, permission changes, directories and hidden files are ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

// schedule (re)starts the quiet timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) Result {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("reading upload: %w", err)}
	}

	logger.Debug("ingesting upload %s (%d bytes)", path, len(content))
	res, err := w.ingest.Ingest(ctx, domain.IngestRequest{
		Filename: filepath.Base(path),
		Content:  content,
	})
	return Result{Path: path, Result: res, Err: err}
}
