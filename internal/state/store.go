package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrObjectNotFound is returned by a Store when the named object is absent.
var ErrObjectNotFound = errors.New("object not found")

// Store is where the state file and its backup live.
type Store interface {
	// Exists reports whether name is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Read returns the contents of name, or ErrObjectNotFound.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write replaces the contents of name.
	Write(ctx context.Context, name string, data []byte) error

	// Copy duplicates src into dst byte for byte.
	Copy(ctx context.Context, src, dst string) error

	// Remove deletes name. Removing a missing object is not an error.
	Remove(ctx context.Context, name string) error

	// Describe renders name for messages, e.g. a path or an s3:// URL.
	Describe(name string) string
}

// localStore keeps objects as files relative to a base directory.
type localStore struct {
	dir string
}

// NewLocalStore returns a filesystem store. Relative names resolve against dir.
func NewLocalStore(dir string) Store {
	return &localStore{dir: dir}
}

func (s *localStore) path(name string) string {
	if filepath.IsAbs(name) || s.dir == "" {
		return name
	}
	return filepath.Join(s.dir, name)
}

func (s *localStore) Describe(name string) string {
	return s.path(name)
}

func (s *localStore) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(s.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *localStore) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, ErrObjectNotFound
	}
	return data, err
}

func (s *localStore) Write(_ context.Context, name string, data []byte) error {
	p := s.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return os.WriteFile(p, data, 0644)
}

func (s *localStore) Copy(_ context.Context, src, dst string) error {
	in, err := os.Open(s.path(src))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return err
	}
	defer in.Close()

	mode := os.FileMode(0644)
	if info, err := in.Stat(); err == nil {
		mode = info.Mode().Perm()
	}

	out, err := os.OpenFile(s.path(dst), os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(s.path(dst))
		return err
	}
	return out.Close()
}

func (s *localStore) Remove(_ context.Context, name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
