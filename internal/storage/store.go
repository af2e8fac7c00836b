package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"backstage/internal/logging"
)

// Store wraps one semantic document behind a mutual-exclusion lock and keeps
// the on-disk copy in sync. Create one per logical document at process start
// and share it for the process lifetime.
type Store[T any] struct {
	path        string
	fs          FS
	codec       Codec[T]
	validate    func(T) bool
	recoverable func(error) bool
	logger      *slog.Logger

	mu    sync.Mutex
	value T
}

// Option customises a Store during Open.
type Option[T any] func(*Store[T])

// WithFS overrides the filesystem abstraction (primarily for tests).
func WithFS[T any](fsys FS) Option[T] {
	return func(s *Store[T]) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithCodec overrides the document codec.
func WithCodec[T any](codec Codec[T]) Option[T] {
	return func(s *Store[T]) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithValidator installs a document validator. A loaded document that fails
// validation is treated the same as a missing file: the default is used and
// persisted.
func WithValidator[T any](validate func(T) bool) Option[T] {
	return func(s *Store[T]) {
		if validate != nil {
			s.validate = validate
		}
	}
}

// WithRecoverable overrides the classifier deciding which decode errors fall
// back to the default instead of failing Open.
func WithRecoverable[T any](recoverable func(error) bool) Option[T] {
	return func(s *Store[T]) {
		if recoverable != nil {
			s.recoverable = recoverable
		}
	}
}

// WithLogger attaches a logger.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(s *Store[T]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open reads the document at path, falling back to defaultValue when the file
// is absent, holds recognized-malformed content, or fails validation. In the
// fallback case the default is persisted immediately so the on-disk state is
// normalized. Decode errors outside the recoverable set are returned: they
// indicate a codec bug, not a data problem.
func Open[T any](defaultValue T, path string, opts ...Option[T]) (*Store[T], error) {
	s := &Store[T]{
		path:        path,
		fs:          OSFS{},
		codec:       JSONCodec[T]{},
		validate:    func(T) bool { return true },
		recoverable: IsJSONDataError,
		value:       defaultValue,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "storage").With(logging.String(logging.FieldPath, path))

	needSave := true
	data, err := s.fs.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("document not on disk, using default value")
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		var loaded T
		if decodeErr := s.codec.Decode(data, &loaded); decodeErr != nil {
			if !s.recoverable(decodeErr) {
				return nil, fmt.Errorf("decode %s: %w", path, decodeErr)
			}
			s.logger.Error("error deserializing existing data, using default value",
				logging.Error(decodeErr))
		} else if !s.validate(loaded) {
			s.logger.Error("data validation failed, using default value")
		} else {
			s.value = loaded
			needSave = false
			s.logger.Debug("loaded document")
		}
	}

	if needSave {
		if err := s.persistLocked(); err != nil {
			return nil, fmt.Errorf("persist default: %w", err)
		}
	}
	return s, nil
}

// Path returns the store's on-disk location.
func (s *Store[T]) Path() string {
	return s.path
}

// Update acquires a writable guard, runs fn against the live document, and
// releases the guard. The document is persisted even when fn returns an error,
// matching guard semantics; fn's error takes precedence over a persist error.
func (s *Store[T]) Update(fn func(*T) error) error {
	guard := s.Acquire()
	fnErr := fn(guard.Doc())
	releaseErr := guard.Release()
	if fnErr != nil {
		return fnErr
	}
	return releaseErr
}

// View acquires a read-only guard and runs fn against the live document.
// No disk write happens on release.
func (s *Store[T]) View(fn func(*T)) {
	guard := s.AcquireRead()
	defer guard.Release()
	fn(guard.Doc())
}

// persistLocked serializes the document and writes it to disk unless the
// serialized bytes match the current file content byte for byte. A missing
// file always counts as different. Callers must hold s.mu.
func (s *Store[T]) persistLocked() error {
	data, err := s.codec.Encode(s.value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}

	existing, readErr := s.fs.ReadFile(s.path)
	if readErr == nil && bytes.Equal(existing, data) {
		s.logger.Debug("document unchanged, skipping write")
		return nil
	}
	if readErr != nil && !errors.Is(readErr, fs.ErrNotExist) {
		return fmt.Errorf("read %s before write: %w", s.path, readErr)
	}

	if err := s.fs.WriteFile(s.path, data); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.logger.Debug("wrote document", logging.Int("bytes", len(data)))
	return nil
}
