// Package storage writes output files atomically.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is an output file that only appears at its final path once Commit
// succeeds. Until then data goes to a temp file in the same directory.
type File struct {
	tmp  *os.File
	path string
	done bool
}

// Create opens a temp file next to path. The parent directory is created if
// needed.
func Create(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".linkgraph-tmp-*")
	if err != nil {
		return nil, fmt.Errorf("storage: create temp: %w", err)
	}
	return &File{tmp: tmp, path: abs}, nil
}

// Write appends to the temp file.
func (f *File) Write(p []byte) (int, error) {
	return f.tmp.Write(p)
}

// Path returns the final destination.
func (f *File) Path() string { return f.path }

// Commit fsyncs the temp file and renames it over the destination.
func (f *File) Commit() error {
	if f.done {
		return fmt.Errorf("storage: %s already finished", f.path)
	}
	f.done = true
	tmpName := f.tmp.Name()

	if err := f.tmp.Sync(); err != nil {
		_ = f.tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := f.tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// Abort discards the temp file. It is a no-op after Commit, so it is safe
// to defer.
func (f *File) Abort() {
	if f.done {
		return
	}
	f.done = true
	_ = f.tmp.Close()
	_ = os.Remove(f.tmp.Name())
}
