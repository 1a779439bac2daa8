// Package tmplstore holds the configured default .docx template and reloads
// it when the file changes on disk.
package tmplstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sesiond/internal/docx"
	"github.com/fyrsmithlabs/sesiond/internal/logging"
	"github.com/fyrsmithlabs/sesiond/internal/sanitize"
)

// MaxTemplateSize bounds the template file read from disk.
const MaxTemplateSize = 64 << 20

// DefaultDebounce collapses the burst of write events an editor produces
// while saving into a single reload.
const DefaultDebounce = 200 * time.Millisecond

var (
	// ErrTooLarge indicates the template file exceeds MaxTemplateSize.
	ErrTooLarge = errors.New("template file too large")

	// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
	ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")
)

// ReloadEvent reports the outcome of a reload triggered by a file change.
type ReloadEvent struct {
	Path      string
	Err       error // nil on success; the previous template stays active otherwise
	Timestamp time.Time
}

// Store serves the most recently loaded template. It is safe for concurrent use.
type Store struct {
	path     string
	logger   *logging.Logger
	debounce time.Duration

	current  atomic.Pointer[docx.Template]
	loadedAt atomic.Int64

	watcher  *fsnotify.Watcher
	events   chan ReloadEvent
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce sets how long the watcher waits after the last change event
// before reloading.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithLogger sets the logger used for reload results.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New validates path and loads the template once. The file must exist and
// parse as a template.
func New(path string, opts ...Option) (*Store, error) {
	abs, err := sanitize.ValidateTemplatePath(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:     abs,
		logger:   logging.NewNop(),
		debounce: DefaultDebounce,
		events:   make(chan ReloadEvent, 10),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the absolute template path.
func (s *Store) Path() string { return s.path }

// Current returns the active template.
func (s *Store) Current() *docx.Template { return s.current.Load() }

// LoadedAt returns when the active template was loaded.
func (s *Store) LoadedAt() time.Time { return time.Unix(0, s.loadedAt.Load()) }

// Reload reads and parses the file. On failure the active template is kept.
func (s *Store) Reload() error {
	data, err := readTemplate(s.path)
	if err != nil {
		return err
	}
	tmpl, err := docx.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(s.path), err)
	}
	s.current.Store(tmpl)
	s.loadedAt.Store(time.Now().UnixNano())
	return nil
}

func readTemplate(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("template %s is not a regular file", filepath.Base(path))
	}
	if info.Size() > MaxTemplateSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	return data, nil
}

// Start watches the template's directory and reloads on changes to the
// file. The directory is watched rather than the file so that editors
// saving through rename are still seen. Call Stop to release the watcher.
func (s *Store) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = watcher

	go s.processEvents(ctx)
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
	})
}

// Events returns the channel of reload outcomes. Events are dropped when
// nobody reads them.
func (s *Store) Events() <-chan ReloadEvent {
	return s.events
}

func (s *Store) processEvents(ctx context.Context) {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(s.debounce)

		case <-timer.C:
			s.reloadAndNotify(ctx)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn(ctx, "template watcher error", zap.Error(err))
		}
	}
}

func (s *Store) reloadAndNotify(ctx context.Context) {
	err := s.Reload()
	if err != nil {
		s.logger.Warn(ctx, "template reload failed, keeping previous version",
			zap.String("path", s.path), zap.Error(err))
	} else {
		s.logger.Info(ctx, "template reloaded", zap.String("path", s.path))
	}

	select {
	case s.events <- ReloadEvent{Path: s.path, Err: err, Timestamp: time.Now()}:
	default:
	}
}
