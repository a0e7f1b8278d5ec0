// SPDX-License-Identifier: MPL-2.0

package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"golang.org/x/sync/errgroup"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/internal/flock"
	"github.com/pax-hub/paxy/internal/registry"
	"github.com/pax-hub/paxy/pkg/platform"
)

// syncLimit bounds concurrent network operations in SyncAll.
const syncLimit = 4

// ErrSync is returned when a repository cannot be cloned or updated.
var ErrSync = errors.New("repository sync failed")

type (
	// Syncer clones and updates repositories below a root directory.
	Syncer struct {
		root  string
		creds credentials
	}

	// Result reports what Sync did to one repository.
	Result struct {
		Name string
		Dir  string
		// Cloned is set when the repository was cloned by this call.
		Cloned bool
		// Updated is set when an existing clone moved to a new commit.
		Updated bool
		// Head is the commit checked out afterwards.
		Head string
	}

	// SyncError names the repository a sync failed for.
	SyncError struct {
		Name  string
		URL   string
		Cause error
	}
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("sync repository %s (%s): %v", e.Name, e.URL, e.Cause)
}

// Unwrap returns ErrSync and the cause.
func (e *SyncError) Unwrap() []error { return []error{ErrSync, e.Cause} }

// NewSyncer returns a Syncer that keeps clones below root. Credentials are
// taken from ~/.ssh and the GITHUB_TOKEN, GITLAB_TOKEN and GIT_TOKEN
// environment variables.
func NewSyncer(root string) *Syncer {
	return &Syncer{root: root, creds: defaultCredentialSource().load()}
}

// Dir returns the clone directory for the named repository.
func (s *Syncer) Dir(name string) string {
	return filepath.Join(s.root, name)
}

// Dirs returns the clone directories of repos that exist on disk.
func (s *Syncer) Dirs(repos []registry.Repository) []string {
	var dirs []string
	for _, r := range repos {
		if info, err := os.Stat(s.Dir(r.Name)); err == nil && info.IsDir() {
			dirs = append(dirs, s.Dir(r.Name))
		}
	}
	return dirs
}

// Sync clones repo, or pulls it when a clone already exists.
func (s *Syncer) Sync(ctx context.Context, repo registry.Repository) (*Result, error) {
	if err := platform.ValidatePortableName(repo.Name); err != nil {
		return nil, &SyncError{Name: repo.Name, URL: repo.URL, Cause: err}
	}
	dir := s.Dir(repo.Name)
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, &SyncError{Name: repo.Name, URL: repo.URL, Cause: err}
	}
	lock, err := flock.Acquire(ctx, flock.PathFor(dir))
	switch {
	case err == nil:
		defer lock.Release()
	case errors.Is(err, flock.ErrUnavailable):
	default:
		return nil, &SyncError{Name: repo.Name, URL: repo.URL, Cause: err}
	}

	log := ctxlog.FromContext(ctx).With("repository", repo.Name)
	res := &Result{Name: repo.Name, Dir: dir}
	auth := s.creds.forURL(repo.URL)

	r, err := git.PlainOpen(dir)
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		log.Info("cloning repository", "url", repo.URL)
		r, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: repo.URL, Auth: auth})
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, &SyncError{Name: repo.Name, URL: repo.URL, Cause: err}
		}
		res.Cloned = true
	case err != nil:
		return nil, &SyncError{Name: repo.Name, URL: repo.URL, Cause: err}
	default:
		log.Debug("pulling repository", "dir", dir)
		before, _ := r.Head()
		wt, err := r.Worktree()
		if err != nil {
			return nil, &SyncError{Name: repo.Name, URL: repo.URL, Cause: err}
		}
		err = wt.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName, Auth: auth, Force: true})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil, &SyncError{Name: repo.Name, URL: repo.URL, Cause: err}
		}
		after, _ := r.Head()
		res.Updated = before != nil && after != nil && before.Hash() != after.Hash()
	}

	head, err := r.Head()
	if err != nil {
		return nil, &SyncError{Name: repo.Name, URL: repo.URL, Cause: err}
	}
	res.Head = head.Hash().String()
	return res, nil
}

// SyncAll syncs every repository concurrently. All repositories are
// attempted; the error joins the individual failures. Results follow the
// order of repos and are nil for failed repositories.
func (s *Syncer) SyncAll(ctx context.Context, repos []registry.Repository) ([]*Result, error) {
	results := make([]*Result, len(repos))
	errs := make([]error, len(repos))

	var g errgroup.Group
	g.SetLimit(syncLimit)
	for i, repo := range repos {
		g.Go(func() error {
			results[i], errs[i] = s.Sync(ctx, repo)
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// Remove deletes the clone of the named repository, if any.
func (s *Syncer) Remove(name string) error {
	if err := platform.ValidatePortableName(name); err != nil {
		return err
	}
	if err := os.RemoveAll(s.Dir(name)); err != nil {
		return fmt.Errorf("remove clone of %s: %w", name, err)
	}
	_ = os.Remove(flock.PathFor(s.Dir(name)))
	return nil
}
