// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"cmp"
	"context"
	"errors"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/pax-hub/paxy/pkg/platform"
)

const (
	// OfficialName is the repository every fresh registry starts with.
	OfficialName = "paxy-official"
	// OfficialURL is the clone URL of the official repository.
	OfficialURL = "https://github.com/Pax-Hub/paxy-pkg-repository.git"

	repositoriesTable = "repositories"
	repositoryKind    = "repository"
)

var (
	// scpURL matches git's scp-like syntax, "user@host:path".
	scpURL = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:.+$`)

	errEmptyURL    = errors.New("empty URL")
	errRelativeURL = errors.New("URL must be absolute or of the form user@host:path")
)

type (
	// Repository is a registered package repository. Name doubles as the
	// directory the repository is cloned into.
	Repository struct {
		Name string
		URL  string
	}

	// Repositories is the repository registry.
	Repositories struct {
		store *Store
	}
)

// NewRepositories opens the repository registry stored at path.
func NewRepositories(path string) *Repositories {
	return &Repositories{store: NewStore(path, repositoriesTable, map[string]string{OfficialName: OfficialURL})}
}

// Path returns the registry file.
func (r *Repositories) Path() string { return r.store.Path() }

// List returns the registered repositories sorted by name.
func (r *Repositories) List() ([]Repository, error) {
	entries, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	repos := make([]Repository, 0, len(entries))
	for name, u := range entries {
		repos = append(repos, Repository{Name: name, URL: u})
	}
	slices.SortFunc(repos, func(a, b Repository) int { return cmp.Compare(a.Name, b.Name) })
	return repos, nil
}

// Get returns the repository registered under name.
func (r *Repositories) Get(name string) (Repository, error) {
	entries, err := r.store.Load()
	if err != nil {
		return Repository{}, err
	}
	u, ok := entries[name]
	if !ok {
		return Repository{}, &EntryError{Registry: repositoryKind, Name: name, Kind: ErrNotFound}
	}
	return Repository{Name: name, URL: u}, nil
}

// Add registers a repository. The name must be usable as a directory name
// on every platform and rawURL must be a URL or an scp-like git address.
func (r *Repositories) Add(ctx context.Context, name, rawURL string) error {
	if err := platform.ValidatePortableName(name); err != nil {
		return &EntryError{Registry: repositoryKind, Name: name, Kind: ErrInvalidEntry, Cause: err}
	}
	rawURL = strings.TrimSpace(rawURL)
	if err := validateCloneURL(rawURL); err != nil {
		return &EntryError{Registry: repositoryKind, Name: name, Kind: ErrInvalidEntry, Cause: err}
	}
	return r.store.Update(ctx, func(entries map[string]string) error {
		if _, ok := entries[name]; ok {
			return &EntryError{Registry: repositoryKind, Name: name, Kind: ErrExists}
		}
		entries[name] = rawURL
		return nil
	})
}

// Remove unregisters a repository. The clone on disk is left to the caller.
func (r *Repositories) Remove(ctx context.Context, name string) error {
	return r.store.Update(ctx, func(entries map[string]string) error {
		if _, ok := entries[name]; !ok {
			return &EntryError{Registry: repositoryKind, Name: name, Kind: ErrNotFound}
		}
		delete(entries, name)
		return nil
	})
}

func validateCloneURL(s string) error {
	if s == "" {
		return errEmptyURL
	}
	if scpURL.MatchString(s) {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" || (u.Host == "" && u.Scheme != "file") {
		return errRelativeURL
	}
	return nil
}
