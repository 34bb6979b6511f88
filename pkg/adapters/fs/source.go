// Package fs provides the disk-backed ports.Source used by the CLI and servers.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups editor save bursts (write + chmod + rename) into one signal.
const DefaultDebounce = 100 * time.Millisecond

// Source implements ports.Source and ports.Watchable on the local filesystem.
type Source struct {
	// Debounce is the quiet period before a change is signaled. Zero means DefaultDebounce.
	Debounce time.Duration
}

// New creates a new filesystem source.
func New() *Source {
	return &Source{Debounce: DefaultDebounce}
}

// ReadFile reads the file at path.
func (s *Source) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether a regular file exists at path. Directories do not count.
func (s *Source) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// Watch signals on the returned channel whenever one of paths is written, created,
// renamed or removed. The parent directories are watched rather than the files so that
// editors replacing a file through rename keep triggering events.
// The channel is closed when ctx is done.
func (s *Source) Watch(ctx context.Context, paths []string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	wanted := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		clean := filepath.Clean(p)
		wanted[clean] = true
		dirs[filepath.Dir(clean)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	delay := s.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !wanted[filepath.Clean(event.Name)] || event.Op == fsnotify.Chmod {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(delay)
				} else {
					timer.Reset(delay)
				}
				fire = timer.C
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
					// A signal is already pending.
				}
			}
		}
	}()

	return out, nil
}
