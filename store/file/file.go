// Package file provides a basicfit.Store persisted as one TOML document per
// namespace.
//
// Layout:
//
//	<path>/
//	└── basicfit_auth.toml
//
// Every Apply rewrites the whole document to a temporary file and renames it
// over the original, so a crash leaves either the old or the new contents.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/infodancer/basicfit"
	bferrors "github.com/infodancer/basicfit/errors"
)

func init() {
	basicfit.RegisterStore("file", func(config basicfit.StoreConfig) (basicfit.Store, error) {
		if config.Path == "" {
			return nil, fmt.Errorf("%w: file store requires a path", bferrors.ErrStoreConfigInvalid)
		}
		return Open(config.Path, config.Namespace)
	})
}

// document is the on-disk shape of a namespace.
type document struct {
	Namespace string            `toml:"namespace"`
	Values    map[string]string `toml:"values"`
}

// Store keeps a namespace in <dir>/<namespace>.toml.
type Store struct {
	dir       string
	namespace string
	mu        sync.Mutex
	closed    bool
}

// Open prepares a store rooted at dir, creating the directory if needed.
// The document itself is created on the first Apply.
func Open(dir, namespace string) (*Store, error) {
	if namespace == "" {
		namespace = basicfit.DefaultNamespace
	}
	if filepath.Base(namespace) != namespace {
		return nil, fmt.Errorf("%w: namespace %q is not a plain name", bferrors.ErrStoreConfigInvalid, namespace)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{dir: dir, namespace: namespace}, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.namespace+".toml")
}

// Load reads the document. A missing document is an empty namespace.
func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, bferrors.ErrStoreClosed
	}
	return s.read()
}

// Apply reads the document, applies edits, and atomically replaces it.
func (s *Store) Apply(ctx context.Context, edits ...basicfit.Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bferrors.ErrStoreClosed
	}

	values, err := s.read()
	if err != nil {
		return err
	}
	basicfit.ApplyTo(values, edits)
	return s.write(values)
}

// Close marks the store closed. The document is left in place.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", bferrors.ErrCorruptRecord, s.Path(), err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	return doc.Values, nil
}

// write atomically replaces the document with values.
func (s *Store) write(values map[string]string) error {
	data, err := toml.Marshal(document{Namespace: s.namespace, Values: values})
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	f, err := os.CreateTemp(s.dir, s.namespace+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, s.Path())
}
