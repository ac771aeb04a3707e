package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
)

// ReadFile returns the bytes of a regular file. Missing files and
// directories both report ErrNotFound; any other failure is wrapped as
// ErrStorage.
func ReadFile(abs string) ([]byte, error) {
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage(err)
	}
	if info.IsDir() {
		return nil, apperr.ErrNotFound
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage(err)
	}
	return data, nil
}

// Exists reports whether a regular file exists at abs.
func Exists(abs string) bool {
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// WriteFile atomically writes content: parent mkdir, tmp file, fsync, rename.
func WriteFile(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Storage(fmt.Errorf("mkdir: %w", err))
	}

	tmp, err := os.CreateTemp(dir, ".ansuz-tmp-*")
	if err != nil {
		return apperr.Storage(fmt.Errorf("create temp: %w", err))
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return apperr.Storage(fmt.Errorf("write temp: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return apperr.Storage(fmt.Errorf("fsync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return apperr.Storage(fmt.Errorf("close temp: %w", err))
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return apperr.Storage(fmt.Errorf("rename: %w", err))
	}
	success = true
	return nil
}

// RemoveFile deletes the file at abs, then prunes parent directories left
// empty by the removal, stopping at (and never touching) root.
func RemoveFile(abs, root string) error {
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return apperr.Storage(err)
	}
	if info.IsDir() {
		return apperr.ErrNotFound
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return apperr.Storage(err)
	}
	pruneEmptyDirs(filepath.Dir(abs), root)
	return nil
}

// pruneEmptyDirs removes now-empty ancestors of a deleted file, walking up
// toward root. Emptiness is re-checked immediately before each removal;
// losing the race to a concurrent writer silently stops the walk, so the
// overall delete never fails because of pruning.
func pruneEmptyDirs(dir, root string) {
	for dir != root && strings.HasPrefix(dir, root+string(os.PathSeparator)) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			// A concurrent write repopulated the directory.
			return
		}
		dir = filepath.Dir(dir)
	}
}

// ListDir returns the immediate children of a directory, hidden entries
// excluded. Entries come back in os.ReadDir's sorted order.
func ListDir(abs string) ([]os.DirEntry, error) {
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage(err)
	}
	if !info.IsDir() {
		return nil, apperr.ErrNotFound
	}
	all, err := os.ReadDir(abs)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	out := make([]os.DirEntry, 0, len(all))
	for _, e := range all {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
