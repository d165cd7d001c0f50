// Package blob provides a filesystem-backed BlobStore built on afero.
//
// Production uses the OS filesystem rooted at the configured index
// directory; tests use an in-memory filesystem.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

const tempPrefix = ".tmp-"

// Store keeps each object in its own file under root.
type Store struct {
	fs   afero.Fs
	root string
}

// New creates a store over fsys rooted at root.
func New(fsys afero.Fs, root string) *Store {
	return &Store{fs: fsys, root: filepath.Clean(root)}
}

// NewOS creates a store on the OS filesystem.
func NewOS(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: blob root is empty", domain.ErrConfiguration)
	}
	fsys := afero.NewOsFs()
	if err := fsys.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return New(fsys, root), nil
}

// NewMemory creates a store on an in-memory filesystem.
func NewMemory() *Store {
	return New(afero.NewMemMapFs(), "/blobs")
}

func (s *Store) path(key string) (string, error) {
	clean := path.Clean(key)
	if key == "" || clean != key || path.IsAbs(key) || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", fmt.Errorf("%w: invalid blob key %q", domain.ErrValidation, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes to a temporary file in the target directory and renames it
// into place, so readers never see a partial object.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(full)
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := s.fs.Rename(tmpName, full); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Get reads the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, full)
	if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
		return nil, fmt.Errorf("blob %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether an object is stored under key.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	full, err := s.path(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, full)
}

// List returns the keys under prefix, sorted. Temporary files are skipped.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	walkRoot := s.root
	if dir := path.Dir(prefix + "x"); dir != "." {
		walkRoot = filepath.Join(s.root, filepath.FromSlash(dir))
	}
	ok, err := afero.DirExists(s.fs, walkRoot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var keys []string
	err = afero.Walk(s.fs, walkRoot, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Location returns the filesystem path of key.
func (s *Store) Location(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}
