// Package testutil provides shared test helpers for fixture dumps and databases.
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/linkgraph/internal/codec"
	"github.com/starford/linkgraph/internal/index"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "linkgraph-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WriteZst writes content as a zstandard file named name inside dir and
// returns its path.
func WriteZst(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w, err := codec.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

// ReadZst returns the decompressed content of a zstandard file.
func ReadZst(t *testing.T, path string) string {
	t.Helper()
	r, err := codec.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// Dumps holds the paths of a fixture input set.
type Dumps struct {
	Dir       string
	Pages     string
	Redirects string
	Links     string
	Unmatched string
}

// WriteDumps writes the three inputs into a fresh temp directory. The
// unmatched destination is named but not created.
func WriteDumps(t *testing.T, pages, redirects, links string) Dumps {
	t.Helper()
	dir := t.TempDir()
	return Dumps{
		Dir:       dir,
		Pages:     WriteZst(t, dir, "pages.txt.zst", pages),
		Redirects: WriteZst(t, dir, "redirects.txt.zst", redirects),
		Links:     WriteZst(t, dir, "links.txt.zst", links),
		Unmatched: filepath.Join(dir, "unmatched.txt.zst"),
	}
}
