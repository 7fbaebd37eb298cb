package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes uploads below a root directory.
type LocalStore struct {
	root  string
	namer Namer
}

type LocalOption func(*LocalStore)

// WithLocalNamer overrides how object keys are generated.
func WithLocalNamer(namer Namer) LocalOption {
	return func(s *LocalStore) {
		if namer != nil {
			s.namer = namer
		}
	}
}

func NewLocalStore(root string, opts ...LocalOption) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: local store root is required", ErrStorage)
	}
	store := &LocalStore{root: filepath.Clean(root), namer: DefaultNamer}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Root returns the directory uploads are written to.
func (s *LocalStore) Root() string { return s.root }

// Store writes payload to a temp file next to its final location and renames it into
// place, so a reader never sees a partial upload. The returned path is the key
// relative to Root.
func (s *LocalStore) Store(ctx context.Context, fileName string, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storageError("store", err)
	}
	key := s.namer(fileName)
	finalPath := filepath.Join(s.root, filepath.FromSlash(key))
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", storageError("ensure upload directory", err)
	}

	tempFile, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", storageError("create temp upload file", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(payload); err != nil {
		return "", storageError("write upload", err)
	}
	if err := tempFile.Sync(); err != nil {
		return "", storageError("sync upload", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", storageError("close upload", err)
	}
	if _, err := os.Stat(finalPath); err == nil {
		return "", storageError("promote upload", fmt.Errorf("%s already exists", key))
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", storageError("promote upload", err)
	}
	cleanup = false
	return key, nil
}
