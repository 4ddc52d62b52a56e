package config

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Manager serves the current configuration under a read lock and reloads
// it when the file changes. Connection-level settings (database, redis,
// NATS, port) are read once at startup; only tunables consulted per
// operation pick up a reload.
type Manager struct {
	path string

	mu  sync.RWMutex
	cfg Config
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Manager{path: path, cfg: cfg}, nil
}

// Current returns a copy of the live configuration.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Reload re-reads the file and swaps the live config. Errors leave the
// previous config in place.
func (m *Manager) Reload() {
	cfg, err := Load(m.path)
	if err != nil {
		log.Printf("[CONFIG] reload failed, keeping previous config: %v", err)
		return
	}
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	log.Println("[CONFIG] configuration reloaded")
}

// StartWatcher reloads on file writes until ctx is cancelled. Without a
// config file path the watcher is a no-op.
func (m *Manager) StartWatcher(ctx context.Context) {
	if m.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[CONFIG] watcher unavailable: %v", err)
		return
	}
	if err := watcher.Add(m.path); err != nil {
		log.Printf("[CONFIG] cannot watch %s: %v", m.path, err)
		watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					// Editors often write in bursts; let the file settle.
					time.Sleep(100 * time.Millisecond)
					m.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[CONFIG] watcher error: %v", err)
			}
		}
	}()
}
