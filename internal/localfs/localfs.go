// Package localfs models local folder access for the sync engine. A
// monitored folder is backed by exactly one Source variant: a live
// directory on disk whose read permission is re-checked every cycle,
// or a static snapshot of files captured once at registration time.
package localfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// ErrPermissionLost means previously granted read access to a live
// directory has been revoked. The state machine maps it to the
// permission-required folder status instead of a generic error.
var ErrPermissionLost = errors.New("localfs: read permission lost")

// Source is the local side of a monitored folder.
type Source interface {
	// Label is a short human name for logs and folder cards.
	Label() string

	isSource()
}

// LiveDirectory is a folder rooted at a real path. Access can be
// revoked out from under the daemon, so every cycle re-checks it.
type LiveDirectory struct {
	Root string `json:"root"`
}

func (d *LiveDirectory) Label() string { return d.Root }
func (d *LiveDirectory) isSource()     {}

// SnapshotFile is one file captured into a static snapshot.
type SnapshotFile struct {
	// Path is the file's path as captured, including the synthetic
	// top-level folder-name prefix that bulk selection attaches.
	Path string `json:"path"`
	Data []byte `json:"data"`
}

// StaticSnapshot is a fixed set of files captured at registration.
// It has no revocable grant, so it never yields ErrPermissionLost.
type StaticSnapshot struct {
	Name  string         `json:"name"`
	Files []SnapshotFile `json:"files"`
}

func (s *StaticSnapshot) Label() string { return s.Name + " (snapshot)" }
func (s *StaticSnapshot) isSource()     {}

// ClassifyReadError distinguishes a permission-style read failure
// from a transient I/O error. The check inspects the error's nature
// (errno / fs sentinel), never its message text.
func ClassifyReadError(err error, path string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
		return fmt.Errorf("%w: %s: %v", ErrPermissionLost, path, err)
	}
	return fmt.Errorf("read %s: %w", path, err)
}

// ReadFile reads one file of a live directory, classifying failures.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ClassifyReadError(err, path)
	}
	return data, nil
}
