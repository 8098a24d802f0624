package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalBackend stores objects as files under a base directory. Keys map to
// relative paths; parent directories are created on write.
type LocalBackend struct {
	basePath string
}

var (
	_ Backend = (*LocalBackend)(nil)
	_ Cleaner = (*LocalBackend)(nil)
)

// NewLocalBackend creates the base directory if needed and returns a backend
// rooted at it.
func NewLocalBackend(basePath string) (*LocalBackend, error) {
	if basePath == "" {
		return nil, &ConfigError{Reason: "local backend requires a base path"}
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("cannot create base path %s: %v", basePath, err)}
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		abs = basePath
	}
	return &LocalBackend{basePath: abs}, nil
}

// Name returns a human-readable description of the backend.
func (l *LocalBackend) Name() string {
	return fmt.Sprintf("local filesystem (%s)", l.basePath)
}

func (l *LocalBackend) resolve(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

// Save writes content to a file, creating parent directories as needed.
func (l *LocalBackend) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := l.resolve(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &UploadError{Key: key, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &UploadError{Key: key, Err: err}
	}
	return nil
}

// Load reads a file back. A missing file is reported as not found.
func (l *LocalBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(l.resolve(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &DownloadError{Key: key, Err: err}
	}
	return data, true, nil
}

// Exists checks whether the file for the key is present.
func (l *LocalBackend) Exists(ctx context.Context, key string) bool {
	info, err := os.Stat(l.resolve(key))
	return err == nil && !info.IsDir()
}

// ListKeys walks the tree under the prefix and yields relative slash paths.
func (l *LocalBackend) ListKeys(ctx context.Context, prefix string) KeyIterator {
	return &localIterator{backend: l, ctx: ctx, prefix: prefix}
}

// Delete removes a single file. An already-absent key counts as success.
func (l *LocalBackend) Delete(ctx context.Context, key string) bool {
	err := os.Remove(l.resolve(key))
	return err == nil || errors.Is(err, fs.ErrNotExist)
}

// DeletePrefix removes every file under the prefix and prunes now-empty
// directories. It returns the number of files deleted.
func (l *LocalBackend) DeletePrefix(ctx context.Context, prefix string) int {
	deleted := 0
	it := l.ListKeys(ctx, prefix)
	for key, ok := it.Next(); ok; key, ok = it.Next() {
		if l.Delete(ctx, key) {
			deleted++
		}
	}
	// Best-effort prune of the directory subtree the prefix mapped to.
	root := l.resolve(prefix)
	if root != l.basePath {
		os.RemoveAll(root)
	}
	return deleted
}

// localIterator walks the filesystem on first use and then drains the
// collected keys. The walk is rooted at the prefix so unrelated subtrees are
// never touched.
type localIterator struct {
	backend *LocalBackend
	ctx     context.Context
	prefix  string
	started bool
	keys    []string
	pos     int
	err     error
}

func (it *localIterator) Next() (string, bool) {
	if !it.started {
		it.started = true
		it.walk()
	}
	if it.err != nil || it.pos >= len(it.keys) {
		return "", false
	}
	key := it.keys[it.pos]
	it.pos++
	return key, true
}

func (it *localIterator) Err() error { return it.err }

func (it *localIterator) walk() {
	root := it.backend.basePath
	if it.prefix != "" {
		root = it.backend.resolve(it.prefix)
	}

	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		it.err = &ListError{Prefix: it.prefix, Err: err}
		return
	}
	if !info.IsDir() {
		it.keys = []string{it.prefix}
		return
	}

	it.err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := it.ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(it.backend.basePath, path)
		if err != nil {
			return err
		}
		it.keys = append(it.keys, filepath.ToSlash(rel))
		return nil
	})
	if it.err != nil {
		it.err = &ListError{Prefix: it.prefix, Err: it.err}
	}
}
