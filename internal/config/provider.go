package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 150 * time.Millisecond

// Provider hands out immutable configuration snapshots. The snapshot is
// loaded once and replaced only when the backing file changes.
type Provider struct {
	path    string
	current atomic.Pointer[Config]

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	done     chan struct{}
	onReload []func()
}

// NewProvider loads path (or the defaults) and returns a Provider for it.
func NewProvider(path string) *Provider {
	p := &Provider{path: path}
	p.current.Store(LoadOrDefault(path))
	return p
}

// NewStaticProvider wraps a fixed configuration. Reload and Watch are no-ops.
func NewStaticProvider(cfg *Config) *Provider {
	p := &Provider{}
	p.current.Store(cfg)
	return p
}

// Current returns the active snapshot. Callers must not mutate it.
func (p *Provider) Current() *Config {
	return p.current.Load()
}

// Path returns the backing file path, empty for static providers.
func (p *Provider) Path() string {
	return p.path
}

// Reload re-reads the backing file and swaps in the new snapshot.
func (p *Provider) Reload() {
	if p.path == "" {
		return
	}
	p.current.Store(LoadOrDefault(p.path))

	p.mu.Lock()
	hooks := append([]func(){}, p.onReload...)
	p.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// OnReload registers fn to run after every reload.
func (p *Provider) OnReload(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onReload = append(p.onReload, fn)
}

// Watch starts reloading the snapshot whenever the backing file changes.
// The parent directory is watched so atomic-rename saves are seen.
func (p *Provider) Watch() error {
	if p.path == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(p.path), err)
	}

	p.watcher = w
	p.done = make(chan struct{})
	go p.loop(w, p.done)
	return nil
}

// Close stops the watcher, if any.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher == nil {
		return nil
	}
	close(p.done)
	err := p.watcher.Close()
	p.watcher = nil
	return err
}

func (p *Provider) loop(w *fsnotify.Watcher, done <-chan struct{}) {
	target := filepath.Clean(p.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(reloadDebounce, p.Reload)
			} else {
				timer.Reset(reloadDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("WARNING: config watcher: %v", err)
		}
	}
}
