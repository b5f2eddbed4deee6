package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/gitnexus/gitnexus/internal/gh"
	"github.com/gitnexus/gitnexus/internal/localfs"
)

const commitMessage = "Auto-sync from GitNexus"

// Executor pushes single files to the remote branch and records the
// outcome in the sync log. Failures are re-raised after logging so
// the state machine can react to their kind.
type Executor struct {
	gh   *gh.Client
	logs *LogStore
}

func NewExecutor(client *gh.Client, logs *LogStore) *Executor {
	return &Executor{gh: client, logs: logs}
}

// PushVisit reads one traversed file and pushes it.
func (x *Executor) PushVisit(ctx context.Context, folder *MonitoredFolder, visit localfs.FileVisit) error {
	data, err := visit.Read()
	if err != nil {
		// read failures are classified at the localfs layer; a
		// permission-loss error must surface as such
		x.log(folder, visit.RelPath, LogTypeAuto, LogStatusFail, err.Error())
		return err
	}
	return x.push(ctx, folder, visit.RelPath, data, LogTypeAuto)
}

// PushContent pushes content authored directly by the user, bypassing
// traversal and the ignore policy.
func (x *Executor) PushContent(ctx context.Context, folder *MonitoredFolder, relPath string, data []byte) error {
	return x.push(ctx, folder, relPath, data, LogTypeManual)
}

func (x *Executor) push(ctx context.Context, folder *MonitoredFolder, relPath string, data []byte, typ LogType) error {
	contentB64 := base64.StdEncoding.EncodeToString(data)

	_, err := x.gh.PushFile(ctx, folder.Owner, folder.Repo, folder.Branch, relPath, commitMessage, contentB64)
	if err != nil {
		x.log(folder, relPath, typ, LogStatusFail, err.Error())
		return fmt.Errorf("push %s: %w", relPath, err)
	}

	x.log(folder, relPath, typ, LogStatusSuccess, "")
	slog.Debug("pushed", "folder", folder.Name, "path", relPath, "branch", folder.Branch)
	return nil
}

func (x *Executor) log(folder *MonitoredFolder, relPath string, typ LogType, status LogStatus, message string) {
	if err := x.logs.Append(folder.Name, relPath, folder.Branch, typ, status, message); err != nil {
		slog.Warn("sync log append failed", "error", err)
	}
}
