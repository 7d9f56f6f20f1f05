// Package watch feeds a directory of formula files into a notebook.
//
// Every regular, non-hidden file in the directory is one top-level FORMULA
// cell holding the file's text. The cell's subrole records the file name,
// so restarting the watcher picks up the cells it created before.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driving"
	"github.com/custodia-labs/mathnb/internal/logger"
)

// subrolePrefix marks cells that mirror a file.
const subrolePrefix = "file:"

// Watcher mirrors the files of one directory into one notebook.
type Watcher struct {
	svc      driving.NotebookService
	notebook string
	dir      string

	mu    sync.Mutex
	cells map[string]domain.StyleID
}

// New creates a watcher of dir feeding notebook.
func New(svc driving.NotebookService, notebook, dir string) *Watcher {
	return &Watcher{
		svc:      svc,
		notebook: notebook,
		dir:      dir,
		cells:    make(map[string]domain.StyleID),
	}
}

// Cells returns the file name to cell id mapping.
func (w *Watcher) Cells() map[string]domain.StyleID {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]domain.StyleID, len(w.cells))
	for k, v := range w.cells {
		out[k] = v
	}
	return out
}

// Sync brings the notebook in line with the directory: files without a
// cell are inserted, changed files update their cell and cells whose file
// is gone are deleted.
func (w *Watcher) Sync(ctx context.Context) error {
	if err := w.load(ctx); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	present := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || skipName(entry.Name()) {
			continue
		}
		present[entry.Name()] = true
		if err := w.upsert(ctx, entry.Name()); err != nil {
			return err
		}
	}

	for name := range w.Cells() {
		if !present[name] {
			if err := w.remove(ctx, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run syncs once and then applies file events until ctx is cancelled.
// Failures on single files are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if err := w.Sync(ctx); err != nil {
		return err
	}
	logger.Info("watching %s for notebook %s", w.dir, w.notebook)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if err := w.HandleEvent(ctx, event); err != nil {
				logger.Warn("apply %s: %v", event.Name, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// HandleEvent applies one file system event to the notebook.
func (w *Watcher) HandleEvent(ctx context.Context, event fsnotify.Event) error {
	name := filepath.Base(event.Name)
	if filepath.Dir(event.Name) != filepath.Clean(w.dir) || skipName(name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return w.remove(ctx, name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return w.remove(ctx, name)
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		return w.upsert(ctx, name)
	default:
		return nil
	}
}

// load rebuilds the file mapping from the notebook's cells.
func (w *Watcher) load(ctx context.Context) error {
	styles, err := w.svc.Styles(ctx, w.notebook)
	if err != nil {
		return fmt.Errorf("list cells: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.cells = make(map[string]domain.StyleID)
	for _, s := range styles {
		if !s.IsTopLevel() || s.Source != domain.SourceUser {
			continue
		}
		if name, ok := strings.CutPrefix(string(s.Subrole), subrolePrefix); ok {
			w.cells[name] = s.ID
		}
	}
	return nil
}

func (w *Watcher) upsert(ctx context.Context, name string) error {
	content, err := os.ReadFile(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	text := domain.TextPayload(strings.TrimSpace(string(content)))

	w.mu.Lock()
	id, known := w.cells[name]
	w.mu.Unlock()

	if known {
		_, err := w.request(ctx, domain.ChangeStyle{StyleID: id, Data: text})
		if errors.Is(err, domain.ErrUnknownStyle) {
			// The cell was deleted behind our back; recreate it.
			w.forget(name)
			return w.upsert(ctx, name)
		}
		return err
	}

	result, err := w.request(ctx, domain.InsertStyle{
		AfterID: domain.PositionBottom,
		Props: domain.StyleProps{
			Role:    domain.RoleFormula,
			Subrole: domain.StyleSubrole(subrolePrefix + name),
			Type:    domain.TypeExpr,
			Data:    text,
		},
	})
	if err != nil {
		return err
	}
	if ins, ok := result.Changes[0].(domain.StyleInserted); ok {
		w.mu.Lock()
		w.cells[name] = ins.Style.ID
		w.mu.Unlock()
		logger.Info("%s -> cell %d", name, ins.Style.ID)
	}
	return nil
}

func (w *Watcher) remove(ctx context.Context, name string) error {
	w.mu.Lock()
	id, known := w.cells[name]
	w.mu.Unlock()
	if !known {
		return nil
	}

	_, err := w.request(ctx, domain.DeleteStyle{StyleID: id})
	if err != nil && !errors.Is(err, domain.ErrUnknownStyle) {
		return err
	}
	w.forget(name)
	return nil
}

func (w *Watcher) forget(name string) {
	w.mu.Lock()
	delete(w.cells, name)
	w.mu.Unlock()
}

// request applies req as the user. A rule cycle keeps the applied
// changes, so it is logged rather than returned.
func (w *Watcher) request(ctx context.Context, req domain.ChangeRequest) (*domain.ChangeResult, error) {
	result, err := w.svc.RequestChanges(ctx, w.notebook, domain.SourceUser, []domain.ChangeRequest{req})
	if errors.Is(err, domain.ErrRuleCycleExceeded) {
		logger.Warn("notebook %s: %v", w.notebook, err)
		return result, nil
	}
	return result, err
}

// skipName reports hidden files and editor leftovers.
func skipName(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}
