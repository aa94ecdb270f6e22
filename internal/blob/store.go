// Package blob is the port to the attachment backend. The core only
// depends on the Store interface; the filesystem implementation below is
// the default backend.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type Store interface {
	// Store persists the content and returns an opaque handle. The original
	// filename only influences the handle's extension.
	Store(ctx context.Context, filename string, r io.Reader) (string, error)
	Exists(ctx context.Context, handle string) bool
	Read(ctx context.Context, handle string) (io.ReadCloser, error)
	Delete(ctx context.Context, handle string) error
}

type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	handle := uuid.New().String() + filepath.Ext(filename)

	f, err := os.Create(filepath.Join(s.dir, handle))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(filepath.Join(s.dir, handle))
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(filepath.Join(s.dir, handle))
		return "", err
	}

	return handle, nil
}

func (s *FSStore) Exists(ctx context.Context, handle string) bool {
	_, err := os.Stat(filepath.Join(s.dir, filepath.Base(handle)))
	return err == nil
}

func (s *FSStore) Read(ctx context.Context, handle string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, filepath.Base(handle)))
}

func (s *FSStore) Delete(ctx context.Context, handle string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(handle)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
