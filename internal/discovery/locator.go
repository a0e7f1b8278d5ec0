// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pax-hub/paxy/internal/ctxlog"
	"github.com/pax-hub/paxy/pkg/manifest"
)

// Locator enumerates manifest files below a root directory.
type Locator struct {
	root string
	opts options
}

// walker holds the state of one enumeration.
type walker struct {
	ctx    context.Context
	root   string
	opts   options
	logger *slog.Logger
	yield  func(string, error) bool
}

// NewLocator returns a Locator for root.
func NewLocator(root string, opts ...Option) *Locator {
	return &Locator{root: root, opts: newOptions(opts)}
}

// Root returns the directory the locator walks.
func (l *Locator) Root() string { return l.root }

// Manifests returns the manifest paths below the root, depth first and in
// lexicographic order at every directory level. Paths are absolute.
//
// Entries that cannot be read are skipped and reported as diagnostics. An
// unreadable root or a cancelled ctx yields one *DiscoveryError and ends
// the sequence. Every range over the result walks the tree again.
func (l *Locator) Manifests(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		root, err := filepath.Abs(l.root)
		if err != nil {
			yield("", &DiscoveryError{Root: l.root, Cause: err})
			return
		}
		resolved, err := filepath.EvalSymlinks(root)
		if err == nil {
			var info fs.FileInfo
			if info, err = os.Stat(resolved); err == nil && !info.IsDir() {
				err = &fs.PathError{Op: "readdir", Path: root, Err: fs.ErrInvalid}
			}
		}
		if err != nil {
			yield("", &DiscoveryError{Root: root, Cause: err})
			return
		}

		w := &walker{
			ctx:    ctx,
			root:   root,
			opts:   l.opts,
			logger: ctxlog.FromContext(ctx),
			yield:  yield,
		}
		w.dir(root, 1, []string{resolved})
	}
}

// dir walks one directory whose entries sit at depth. chain holds the
// resolved paths of every directory on the way down, for loop detection.
// It returns false once the consumer stopped or a fatal error was yielded.
func (w *walker) dir(path string, depth int, chain []string) bool {
	if err := w.ctx.Err(); err != nil {
		w.yield("", &DiscoveryError{Root: w.root, Cause: err})
		return false
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if path == w.root {
			w.yield("", &DiscoveryError{Root: w.root, Cause: err})
			return false
		}
		w.diagnose(CodeEntryUnreadable, "skipping unreadable directory", path, err)
		return true
	}

	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		if w.ignored(child) {
			continue
		}

		mode := entry.Type()
		if mode&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(child)
			if statErr != nil {
				w.diagnose(CodeSymlinkBroken, "skipping broken symbolic link", child, statErr)
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsRegular():
			if depth >= w.opts.minDepth && manifest.IsManifestFile(entry.Name()) {
				if !w.yield(child, nil) {
					return false
				}
			}
		case mode.IsDir():
			if depth >= w.opts.maxDepth {
				continue
			}
			resolved, evalErr := filepath.EvalSymlinks(child)
			if evalErr != nil {
				w.diagnose(CodeEntryUnreadable, "skipping unresolvable directory", child, evalErr)
				continue
			}
			if slices.Contains(chain, resolved) {
				w.diagnose(CodeSymlinkLoop, "skipping symbolic link loop", child, nil)
				continue
			}
			if !w.dir(child, depth+1, append(chain[:len(chain):len(chain)], resolved)) {
				return false
			}
		}
	}
	return true
}

func (w *walker) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.opts.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *walker) diagnose(code DiagnosticCode, msg, path string, cause error) {
	w.logger.Debug(msg, "code", code, "path", path, "error", cause)
	if w.opts.report == nil {
		return
	}
	w.opts.report(Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  msg,
		Path:     path,
		Cause:    cause,
	})
}
