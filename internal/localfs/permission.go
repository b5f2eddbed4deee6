package localfs

import (
	"errors"
	"io"
	"log/slog"
	"os"
)

// PermissionMode selects how a grant check may interact with the
// environment.
type PermissionMode int

const (
	// PermissionQuery is the passive check used by timer-driven
	// cycles. It must never have user-visible side effects.
	PermissionQuery PermissionMode = iota
	// PermissionRequest is the active check used by manual syncs. It
	// re-resolves the directory before probing, which can recover a
	// grant the passive check would report as lost.
	PermissionRequest
)

// HasPermission reports whether the source is currently readable.
// Static snapshots carry their content with them and are always
// readable. Any failure during the probe counts as "not granted".
func HasPermission(src Source, mode PermissionMode) bool {
	dir, ok := src.(*LiveDirectory)
	if !ok {
		return true
	}

	root := dir.Root
	if mode == PermissionRequest {
		resolved, err := resolveRoot(root)
		if err != nil {
			slog.Debug("permission request failed to resolve root", "root", root, "error", err)
			return false
		}
		root = resolved
	}

	return probeReadable(root)
}

// probeReadable verifies the directory can actually be listed, not
// just stat'd. A revoked grant usually still stats fine.
func probeReadable(root string) bool {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return false
	}

	f, err := os.Open(root)
	if err != nil {
		return false
	}
	defer f.Close()

	// empty directories report io.EOF, which is still readable
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	return true
}

func resolveRoot(root string) (string, error) {
	resolved, err := os.Readlink(root)
	if err != nil {
		// not a symlink, use as-is
		return root, nil
	}
	return resolved, nil
}
