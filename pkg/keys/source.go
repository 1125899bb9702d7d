package keys

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// ErrEmptyKey is returned when a source would be constructed with no key
// material.
var ErrEmptyKey = errors.New("signing key is empty")

// Source provides the current signing key. Implementations must be safe
// for concurrent use; SigningKey is called on every validated request.
type Source interface {
	// SigningKey returns the current key material. The returned slice
	// must not be modified by callers.
	SigningKey() []byte
}

// StaticSource is a Source whose key never changes after construction.
type StaticSource struct {
	key []byte
}

// NewStaticSource creates a Source from fixed key material.
func NewStaticSource(key []byte) (*StaticSource, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &StaticSource{key: key}, nil
}

// SigningKey returns the fixed key.
func (s *StaticSource) SigningKey() []byte {
	return s.key
}

// FileSource reads the signing key from a file and watches it for changes.
// On a change the key is re-read and swapped atomically; readers always
// see either the old key or the new one, never a partial state. If a
// re-read fails or yields an empty file, the previous key is kept so a
// botched rotation does not take the gateway down.
type FileSource struct {
	path    string
	current atomic.Pointer[[]byte]
	watcher *fsnotify.Watcher
	done    chan struct{}
	logger  *slog.Logger
}

// NewFileSource creates a Source backed by the file at path and starts
// watching its directory for changes. Watching the directory rather than
// the file itself survives the rename-based rotation that secret mounts
// and most editors use. Call Close to stop the watcher.
func NewFileSource(path string) (*FileSource, error) {
	s := &FileSource{
		path:   path,
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "keys"),
	}

	key, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(&key)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch key directory: %w", err)
	}
	s.watcher = watcher
	go s.watchLoop()

	s.logger.Info("signing key loaded from file", "path", path)
	return s, nil
}

// SigningKey returns the current key.
func (s *FileSource) SigningKey() []byte {
	return *s.current.Load()
}

// Close stops the file watcher.
func (s *FileSource) Close() error {
	close(s.done)
	return s.watcher.Close()
}

// watchLoop reloads the key when the watched file changes.
func (s *FileSource) watchLoop() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.reload()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("key file watcher error", "error", err)
		}
	}
}

// reload re-reads the key file and swaps in the new key.
func (s *FileSource) reload() {
	key, err := readKeyFile(s.path)
	if err != nil {
		s.logger.Warn("signing key reload failed, keeping previous key",
			"path", s.path,
			"error", err,
		)
		return
	}
	if bytes.Equal(key, s.SigningKey()) {
		return
	}
	s.current.Store(&key)
	s.logger.Info("signing key rotated", "path", s.path)
}

// readKeyFile reads and trims the key material from a file.
func readKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %q: %w", path, err)
	}
	key := bytes.TrimSpace(data)
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyKey, path)
	}
	return key, nil
}
