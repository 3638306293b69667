package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrStoreNotStarted is returned when Stop is called on a store that was
// never started.
var ErrStoreNotStarted = errors.New("identity store not started")

// FileStore watches a session file written by the console and emits identity
// updates as the file changes. The file holds a JSON user object; removal of
// the file or a file with no user id is treated as logout.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current *Identity

	watcher *fsnotify.Watcher
	updates chan *Identity
	done    chan struct{}
	started bool
}

// NewFileStore creates a session-file identity store. Start must be called
// before updates flow.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:    path,
		logger:  logger,
		updates: make(chan *Identity, 1),
		done:    make(chan struct{}),
	}
}

// Start reads the session file, begins watching its directory, and launches
// the update loop. Watching the directory rather than the file survives the
// rename-over-replace pattern editors and the console both use.
func (s *FileStore) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating session watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watching session dir %s: %w", dir, err)
	}

	s.watcher = w
	s.started = true

	id := s.load()
	s.mu.Lock()
	s.current = id
	s.mu.Unlock()

	go s.watchLoop(ctx)

	s.logger.Info("session store started", "path", s.path, "logged_in", id != nil)
	return nil
}

// Stop closes the watcher and the updates channel.
func (s *FileStore) Stop() error {
	if !s.started {
		return ErrStoreNotStarted
	}
	err := s.watcher.Close()
	<-s.done
	close(s.updates)
	return err
}

// Current returns the most recently loaded identity, or nil when logged out.
func (s *FileStore) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Updates returns the channel of identity changes. Duplicate states are
// coalesced; only value changes are delivered.
func (s *FileStore) Updates() <-chan *Identity {
	return s.updates
}

func (s *FileStore) watchLoop(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.reload()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("session watcher error", "error", err)
		}
	}
}

// reload re-reads the session file and publishes the identity if it changed.
func (s *FileStore) reload() {
	id := s.load()

	s.mu.Lock()
	prev := s.current
	if sameIdentity(prev, id) {
		s.mu.Unlock()
		return
	}
	s.current = id
	s.mu.Unlock()

	select {
	case s.updates <- id:
	default:
		// Consumer is behind; drain the stale update and replace it.
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- id:
		default:
		}
	}

	s.logger.Debug("session changed", "logged_in", id != nil)
}

// load parses the session file into an identity. Any read or parse failure is
// treated as logged out.
func (s *FileStore) load() *Identity {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("reading session file", "path", s.path, "error", err)
		}
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("parsing session file", "path", s.path, "error", err)
		return nil
	}

	// The console writes either the user object directly or an envelope
	// with a "user" key.
	if u, ok := raw["user"].(map[string]any); ok {
		raw = u
	}

	id, ok := FromUser(raw)
	if !ok {
		return nil
	}
	return &id
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
