// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Guest mount points.
const (
	GuestSource  = "/pkg"
	GuestScratch = "/tmp"
	GuestStaging = "/stage"
)

var (
	// ErrInvalidLayout is returned when the host directories cannot form a sandbox.
	ErrInvalidLayout = errors.New("invalid sandbox layout")
	// ErrUnmappedPath is returned for a guest path outside every mount.
	ErrUnmappedPath = errors.New("path is not mapped into the sandbox")
	// ErrPathEscape is returned for a guest path that leaves its mount.
	ErrPathEscape = errors.New("path escapes the sandbox")
)

type (
	// Layout names the three host directories exposed to a plugin.
	Layout struct {
		// Source holds the package sources, mounted read-only at GuestSource.
		Source string
		// Scratch is the writable working directory, mounted at GuestScratch.
		Scratch string
		// Staging is the writable install root, mounted at GuestStaging.
		Staging string
	}

	// Mount maps one host directory into the guest.
	Mount struct {
		Guest    string
		Host     string
		ReadOnly bool
	}

	// LayoutError explains why a Layout is unusable.
	LayoutError struct {
		Field  string
		Path   string
		Reason string
	}

	// PathError explains why a guest path cannot be resolved.
	PathError struct {
		Guest string
		Err   error
	}
)

// Error implements the error interface.
func (e *LayoutError) Error() string {
	return fmt.Sprintf("sandbox %s directory %q: %s", e.Field, e.Path, e.Reason)
}

// Unwrap returns ErrInvalidLayout for errors.Is() compatibility.
func (e *LayoutError) Unwrap() error { return ErrInvalidLayout }

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("guest path %q: %v", e.Guest, e.Err)
}

// Unwrap returns the classification sentinel.
func (e *PathError) Unwrap() error { return e.Err }

// Mounts returns the three mappings in a fixed order: source, scratch, staging.
func (l Layout) Mounts() []Mount {
	return []Mount{
		{Guest: GuestSource, Host: l.Source, ReadOnly: true},
		{Guest: GuestScratch, Host: l.Scratch},
		{Guest: GuestStaging, Host: l.Staging},
	}
}

// Validate checks that every host directory is an absolute path to an
// existing directory and that no directory equals or contains another.
func (l Layout) Validate() error {
	fields := []struct {
		name string
		path string
	}{
		{"source", l.Source},
		{"scratch", l.Scratch},
		{"staging", l.Staging},
	}

	resolved := make([]string, len(fields))
	for i, f := range fields {
		if f.path == "" {
			return &LayoutError{Field: f.name, Path: f.path, Reason: "not set"}
		}
		if !filepath.IsAbs(f.path) {
			return &LayoutError{Field: f.name, Path: f.path, Reason: "not an absolute path"}
		}
		resolvedPath, err := filepath.EvalSymlinks(f.path)
		if err != nil {
			return &LayoutError{Field: f.name, Path: f.path, Reason: err.Error()}
		}
		info, err := os.Stat(resolvedPath)
		if err != nil {
			return &LayoutError{Field: f.name, Path: f.path, Reason: err.Error()}
		}
		if !info.IsDir() {
			return &LayoutError{Field: f.name, Path: f.path, Reason: "not a directory"}
		}
		resolved[i] = resolvedPath
	}

	for i := range fields {
		for j := range i {
			if within(resolved[j], resolved[i]) || within(resolved[i], resolved[j]) {
				return &LayoutError{
					Field:  fields[i].name,
					Path:   fields[i].path,
					Reason: fmt.Sprintf("overlaps the %s directory %q", fields[j].name, fields[j].path),
				}
			}
		}
	}
	return nil
}

// Resolve maps a guest path to the host path it refers to. The guest path
// must be absolute and lie in a mount; ".." segments are refused outright
// and so is any symbolic link that leads outside the mount's directory.
// Paths that do not exist yet resolve through their nearest existing parent.
func (l Layout) Resolve(guest string) (string, error) {
	if !path.IsAbs(guest) {
		return "", &PathError{Guest: guest, Err: ErrUnmappedPath}
	}
	for _, seg := range strings.Split(guest, "/") {
		if seg == ".." {
			return "", &PathError{Guest: guest, Err: ErrPathEscape}
		}
	}

	clean := path.Clean(guest)
	for _, m := range l.Mounts() {
		rest, ok := strings.CutPrefix(clean, m.Guest)
		if !ok || (rest != "" && rest[0] != '/') {
			continue
		}
		host := filepath.Join(m.Host, filepath.FromSlash(rest))

		root, err := filepath.EvalSymlinks(m.Host)
		if err != nil {
			return "", &PathError{Guest: guest, Err: err}
		}
		target, err := evalExisting(host)
		if err != nil {
			return "", &PathError{Guest: guest, Err: err}
		}
		if !within(root, target) {
			return "", &PathError{Guest: guest, Err: ErrPathEscape}
		}
		return host, nil
	}
	return "", &PathError{Guest: guest, Err: ErrUnmappedPath}
}

// Contains reports whether p, with symbolic links in its existing prefix
// followed, is root or lies below root.
func Contains(root, p string) (bool, error) {
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false, err
	}
	target, err := evalExisting(p)
	if err != nil {
		return false, err
	}
	return within(resolvedRoot, target), nil
}

// evalExisting resolves symbolic links in the longest existing prefix of p
// and appends the missing remainder unchanged.
func evalExisting(p string) (string, error) {
	var missing []string
	for {
		resolvedPath, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{resolvedPath}, missing...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		missing = append([]string{filepath.Base(p)}, missing...)
		p = parent
	}
}

// within reports whether p is root or lies below it.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
