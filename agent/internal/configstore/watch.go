package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/models"

	"github.com/fsnotify/fsnotify"
)

// importSettle lets editors finish writing before the file is read.
const importSettle = 200 * time.Millisecond

// Watcher imports a SiteConfiguration JSON file into the store whenever it
// is created or rewritten. The parent directory is watched so editors that
// replace the file by rename are picked up too.
type Watcher struct {
	store   *Store
	path    string
	watcher *fsnotify.Watcher

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewWatcher(store *Store, path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	logger.Infof("Watching policy file: %s", abs)
	return &Watcher{store: store, path: abs, watcher: fw, stop: make(chan struct{})}, nil
}

// Start imports the file once if it exists, then follows changes.
// Imported reports every import attempt; it may be nil.
func (w *Watcher) Start(ctx context.Context, imported func(error)) {
	if _, err := os.Stat(w.path); err == nil {
		w.report(imported, w.Import(ctx))
	}
	w.wg.Add(1)
	go w.loop(ctx, imported)
}

func (w *Watcher) loop(ctx context.Context, imported func(error)) {
	defer w.wg.Done()
	var pending <-chan time.Time
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != w.path {
				continue
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending = time.After(importSettle)
			}
		case <-pending:
			pending = nil
			w.report(imported, w.Import(ctx))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("Policy watcher error: %v", err)
		}
	}
}

func (w *Watcher) report(imported func(error), err error) {
	if err != nil {
		logger.Errorf("Policy import from %s failed: %v", w.path, err)
	} else {
		logger.Infof("Policy imported from %s", w.path)
	}
	if imported != nil {
		imported(err)
	}
}

// Import reads the file and writes it through the validated Write path.
func (w *Watcher) Import(ctx context.Context) error {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return errors.New("policy file is empty")
	}
	var cfg models.SiteConfiguration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return &models.ValidationError{Field: "policy file", Reason: err.Error()}
	}
	if err := w.store.Write(ctx, cfg); err != nil {
		return fmt.Errorf("import policy: %w", err)
	}
	return nil
}

func (w *Watcher) Close() error {
	var closeErr error
	w.once.Do(func() {
		close(w.stop)
		closeErr = w.watcher.Close()
	})
	w.wg.Wait()
	return closeErr
}
