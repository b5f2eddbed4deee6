package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitconfig "github.com/go-git/go-git/v5/config"

	"github.com/gitnexus/gitnexus/internal/gh"
	"github.com/gitnexus/gitnexus/internal/localfs"
)

// ErrRepoNotVisible means registration finalization could not verify
// the target repository with the current credential.
var ErrRepoNotVisible = errors.New("sync: repository not found or not visible")

// FolderDraft is the transient state between folder selection and
// confirm/cancel. It is never persisted.
type FolderDraft struct {
	Name   string
	Source localfs.Source

	Owner    string
	Repo     string
	Branch   string
	Branches []gh.Branch

	// CreateNewBranch requests a fresh branch (NewBranchName) cut
	// from Branch's latest commit during finalization.
	CreateNewBranch bool
	NewBranchName   string
}

// Registrar turns a selected local source into a MonitoredFolder.
type Registrar struct {
	gh    *gh.Client
	store *FolderStore
}

func NewRegistrar(client *gh.Client, store *FolderStore) *Registrar {
	return &Registrar{gh: client, store: store}
}

// Draft builds the confirmation state for a source: repository guess
// from version-control metadata, then the branch list for selection.
// Absent or unparseable metadata defaults the guess to the
// authenticated user and the directory's own name.
func (r *Registrar) Draft(ctx context.Context, source localfs.Source) (*FolderDraft, error) {
	name, owner, repo, guessed := guessIdentity(source)
	if !guessed {
		if login, err := r.gh.AuthenticatedUser(ctx); err == nil {
			owner = login
		}
	}

	draft := &FolderDraft{
		Name:   name,
		Source: source,
		Owner:  owner,
		Repo:   repo,
	}

	branches, err := r.gh.ListBranches(ctx, owner, repo)
	if err != nil {
		// the guess may point at a repository that does not exist
		// yet; the user can still correct owner/repo before confirm
		return draft, fmt.Errorf("list branches for %s/%s: %w", owner, repo, err)
	}

	draft.Branches = branches
	draft.Branch = preferredBranch(branches)
	return draft, nil
}

// RefreshBranches re-fetches the branch list after the user edits
// owner/repo on the draft.
func (r *Registrar) RefreshBranches(ctx context.Context, draft *FolderDraft) error {
	branches, err := r.gh.ListBranches(ctx, draft.Owner, draft.Repo)
	if err != nil {
		return err
	}
	draft.Branches = branches
	draft.Branch = preferredBranch(branches)
	return nil
}

// Finalize verifies the target repository, optionally creates the new
// branch, and materializes the MonitoredFolder. Any failure aborts
// without mutating the monitored set.
func (r *Registrar) Finalize(ctx context.Context, draft *FolderDraft, intervalMinutes int) (*MonitoredFolder, error) {
	visible, err := r.gh.CheckRepository(ctx, draft.Owner, draft.Repo)
	if err != nil {
		return nil, fmt.Errorf("verify repository: %w", err)
	}
	if !visible {
		return nil, fmt.Errorf("%w: %s/%s", ErrRepoNotVisible, draft.Owner, draft.Repo)
	}

	branch := draft.Branch
	if draft.CreateNewBranch {
		if draft.NewBranchName == "" {
			return nil, errors.New("sync: new branch name required")
		}
		commits, err := r.gh.ListCommits(ctx, draft.Owner, draft.Repo, draft.Branch)
		if err != nil {
			return nil, fmt.Errorf("resolve source commit: %w", err)
		}
		if len(commits) == 0 {
			return nil, fmt.Errorf("sync: branch %s has no commits to fork from", draft.Branch)
		}
		if err := r.gh.CreateBranch(ctx, draft.Owner, draft.Repo, draft.NewBranchName, commits[0].SHA); err != nil {
			return nil, fmt.Errorf("create branch %s: %w", draft.NewBranchName, err)
		}
		branch = draft.NewBranchName
	}

	folder := NewMonitoredFolder(draft.Name, draft.Source, draft.Owner, draft.Repo, branch, intervalMinutes)
	if err := r.store.Put(folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// guessIdentity pre-fills name/owner/repo from the source's git
// metadata. guessed is false when no metadata was found and the
// caller should substitute the authenticated user as owner.
func guessIdentity(source localfs.Source) (name, owner, repo string, guessed bool) {
	switch s := source.(type) {
	case *localfs.LiveDirectory:
		name = filepath.Base(s.Root)
		if o, r, ok := detectGitRemote(s.Root); ok {
			return name, o, r, true
		}
	case *localfs.StaticSnapshot:
		name = s.Name
	}
	if name == "" {
		name = "folder"
	}
	return name, "", name, false
}

// detectGitRemote parses <dir>/.git/config and extracts owner/repo
// from the origin remote URL.
func detectGitRemote(dir string) (owner, repo string, ok bool) {
	f, err := os.Open(filepath.Join(dir, ".git", "config"))
	if err != nil {
		return "", "", false
	}
	defer f.Close()

	cfg, err := gitconfig.ReadConfig(f)
	if err != nil {
		return "", "", false
	}

	remote, exists := cfg.Remotes["origin"]
	if !exists || len(remote.URLs) == 0 {
		return "", "", false
	}

	return parseRemoteURL(remote.URLs[0])
}

// parseRemoteURL extracts owner/repo from the common remote URL
// shapes: https://host/owner/repo(.git), git@host:owner/repo(.git),
// ssh://git@host/owner/repo(.git).
func parseRemoteURL(raw string) (owner, repo string, ok bool) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), ".git")

	// scp-like syntax has no scheme
	if at := strings.Index(raw, "@"); at >= 0 && !strings.Contains(raw, "://") {
		if colon := strings.Index(raw[at:], ":"); colon >= 0 {
			raw = raw[at+colon+1:]
			return splitOwnerRepo(raw)
		}
	}

	if idx := strings.Index(raw, "://"); idx >= 0 {
		raw = raw[idx+3:]
		// drop user@ and host
		if at := strings.Index(raw, "@"); at >= 0 {
			raw = raw[at+1:]
		}
		if slash := strings.Index(raw, "/"); slash >= 0 {
			return splitOwnerRepo(raw[slash+1:])
		}
	}

	return "", "", false
}

func splitOwnerRepo(path string) (owner, repo string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// preferredBranch picks the conventional primary branch when present.
func preferredBranch(branches []gh.Branch) string {
	for _, candidate := range []string{"main", "master"} {
		for _, b := range branches {
			if b.Name == candidate {
				return candidate
			}
		}
	}
	if len(branches) > 0 {
		return branches[0].Name
	}
	return ""
}
