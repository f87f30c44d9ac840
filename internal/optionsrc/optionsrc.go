// Package optionsrc supplies the selection-widget enumerations (providers,
// models, source materials) from a YAML file and keeps them fresh while the
// file changes on disk.
package optionsrc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/starford/nodeforge/internal/checksum"
	"github.com/starford/nodeforge/internal/models"
)

const reloadDelay = 100 * time.Millisecond

type snapshot struct {
	options  *models.ParameterValueOptions
	checksum string
}

// Source holds the current option snapshot. Readers never block writers.
type Source struct {
	path    string
	current atomic.Pointer[snapshot]
}

// Open reads path into a new Source. A missing or empty file yields an empty
// snapshot; an empty path yields a Source that never changes.
func Open(path string) (*Source, error) {
	s := &Source{path: path}
	s.current.Store(&snapshot{options: &models.ParameterValueOptions{}})
	if path == "" {
		return s, nil
	}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Static returns a Source that always serves opts.
func Static(opts *models.ParameterValueOptions) *Source {
	s := &Source{}
	if opts == nil {
		opts = &models.ParameterValueOptions{}
	}
	s.current.Store(&snapshot{options: opts})
	return s
}

// Options returns the current snapshot. Callers must not modify it.
func (s *Source) Options() *models.ParameterValueOptions {
	return s.current.Load().options
}

// Checksum returns the digest of the file content behind the current snapshot.
func (s *Source) Checksum() string {
	return s.current.Load().checksum
}

// Path returns the watched file path.
func (s *Source) Path() string {
	return s.path
}

// Reload re-reads the file. It reports whether the snapshot changed; content
// identical to the current snapshot is skipped.
func (s *Source) Reload() (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		data = nil
	} else if err != nil {
		return false, fmt.Errorf("optionsrc: read %s: %w", s.path, err)
	}

	sum := checksum.Sum(data)
	if cur := s.current.Load(); cur.checksum == sum {
		return false, nil
	}

	opts, err := Decode(data)
	if err != nil {
		return false, fmt.Errorf("optionsrc: %s: %w", s.path, err)
	}
	s.current.Store(&snapshot{options: opts, checksum: sum})
	return true, nil
}

// Decode parses option YAML. Empty input yields an empty snapshot.
func Decode(data []byte) (*models.ParameterValueOptions, error) {
	opts := &models.ParameterValueOptions{}
	if len(data) == 0 {
		return opts, nil
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return opts, nil
}

// ChangeCallback is called with the new snapshot after each reload that
// changed it.
type ChangeCallback func(opts *models.ParameterValueOptions)

// Watch watches the option file's directory and reloads the snapshot when the
// file is written, created or renamed into place, until ctx is cancelled.
// Bursts of events are coalesced into one reload.
func (s *Source) Watch(ctx context.Context, logger *slog.Logger, cb ChangeCallback) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("optionsrc: watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	logger.Info("options watcher: started", slog.String("path", s.path))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("options watcher: stopped")
			return nil

		case <-reloadCh:
			changed, err := s.Reload()
			if err != nil {
				logger.Warn("options watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			if !changed {
				logger.Debug("options watcher: content unchanged", slog.String("path", s.path))
				continue
			}
			logger.Info("options watcher: reloaded",
				slog.String("path", s.path),
				slog.String("checksum", s.Checksum()))
			if cb != nil {
				cb(s.Options())
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if reloadTimer == nil {
				reloadTimer = time.NewTimer(reloadDelay)
				reloadCh = reloadTimer.C
			} else {
				reloadTimer.Reset(reloadDelay)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("options watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
