// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"sync/atomic"

	"github.com/pax-hub/paxy/internal/ctxlog"
)

// Snapshot holds the most recently built tree of one package directory.
// Readers always see a complete tree; a failed reload keeps the previous one.
type Snapshot struct {
	root    string
	opts    []Option
	current atomic.Pointer[Tree]
}

// NewSnapshot returns an empty snapshot of root. Call Reload to populate it.
func NewSnapshot(root string, opts ...Option) *Snapshot {
	return &Snapshot{root: root, opts: opts}
}

// Load returns the current tree, or nil before the first successful Reload.
func (s *Snapshot) Load() *Tree {
	return s.current.Load()
}

// Reload rebuilds the tree and publishes it. On failure the previous tree
// stays current and the build error is returned.
func (s *Snapshot) Reload(ctx context.Context) (*Tree, error) {
	tree, err := BuildTree(ctx, s.root, s.opts...)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("package tree reload failed, keeping previous tree", "root", s.root, "error", err)
		return nil, err
	}
	s.current.Store(tree)
	return tree, nil
}
