package localfs

import (
	"os"
	"path/filepath"
)

// Entry is one node of a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// Tree is the directory-listing capability the walker runs over.
// Production code uses the real filesystem; tests swap in an
// in-memory fake.
type Tree interface {
	// List returns the entries of dir, relative to the tree root.
	// "" lists the root itself.
	List(dir string) ([]Entry, error)

	// ReadFile returns the bytes of the file at the relative path.
	ReadFile(path string) ([]byte, error)
}

// osTree is a Tree over a real directory root.
type osTree struct {
	root string
}

// NewOSTree returns a Tree rooted at dir on the real filesystem.
func NewOSTree(dir string) Tree {
	return &osTree{root: dir}
}

func (t *osTree) List(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(filepath.Join(t.root, filepath.FromSlash(dir)))
	if err != nil {
		return nil, ClassifyReadError(err, dir)
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{Name: e.Name(), IsDir: e.IsDir()})
	}
	return out, nil
}

func (t *osTree) ReadFile(path string) ([]byte, error) {
	return ReadFile(filepath.Join(t.root, filepath.FromSlash(path)))
}
