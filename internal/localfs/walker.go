package localfs

import (
	"context"
	"path"
	"sort"
	"strings"
)

// FileVisit is one file yielded by a walk: its folder-relative path
// (slash separated) and a deferred reader for its content.
type FileVisit struct {
	RelPath string
	Read    func() ([]byte, error)
}

// VisitFunc receives each non-ignored file in discovery order.
// Returning an error aborts the walk.
type VisitFunc func(FileVisit) error

// IgnoreFunc reports whether a relative path should be skipped.
type IgnoreFunc func(relPath string) bool

// Walk enumerates the files of a source depth-first, applying the
// ignore policy uniformly to both variants. Each call walks from
// scratch; nothing is cached between cycles.
func Walk(ctx context.Context, src Source, ignore IgnoreFunc, visit VisitFunc) error {
	switch s := src.(type) {
	case *LiveDirectory:
		return walkTree(ctx, NewOSTree(s.Root), "", ignore, visit)
	case *StaticSnapshot:
		return walkSnapshot(ctx, s, ignore, visit)
	default:
		// the Source interface is sealed, this is unreachable
		return nil
	}
}

// WalkTree is the walk primitive over an explicit Tree capability.
// Exposed so tests can drive the walker with an in-memory fake.
func WalkTree(ctx context.Context, tree Tree, ignore IgnoreFunc, visit VisitFunc) error {
	return walkTree(ctx, tree, "", ignore, visit)
}

func walkTree(ctx context.Context, tree Tree, dir string, ignore IgnoreFunc, visit VisitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := tree.List(dir)
	if err != nil {
		return err
	}

	// deterministic discovery order
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	for _, entry := range entries {
		relPath := path.Join(dir, entry.Name)
		if ignore != nil && ignore(relPath) {
			continue
		}

		if entry.IsDir {
			if err := walkTree(ctx, tree, relPath, ignore, visit); err != nil {
				return err
			}
			continue
		}

		rp := relPath
		err := visit(FileVisit{
			RelPath: rp,
			Read:    func() ([]byte, error) { return tree.ReadFile(rp) },
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func walkSnapshot(ctx context.Context, snap *StaticSnapshot, ignore IgnoreFunc, visit VisitFunc) error {
	for _, file := range snap.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath := stripTopLevel(file.Path)
		if relPath == "" {
			continue
		}
		if ignore != nil && ignore(relPath) {
			continue
		}

		data := file.Data
		err := visit(FileVisit{
			RelPath: relPath,
			Read:    func() ([]byte, error) { return data, nil },
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// stripTopLevel removes the synthetic folder-name prefix that bulk
// folder selection attaches to every captured path.
func stripTopLevel(p string) string {
	p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	// a bare file name has no prefix to strip
	return p
}
