// SPDX-License-Identifier: MPL-2.0

// Package flock provides advisory, cross-process exclusive locks on files.
//
// Locks are released by the kernel when the descriptor closes, including
// when the process dies, so an orphaned lock file is harmless. On platforms
// without flock, Acquire returns ErrUnavailable and callers fall back to an
// in-process mutex.
package flock

import (
	"errors"
	"path/filepath"
	"time"
)

// pollInterval is how often a contended lock is retried while waiting.
const pollInterval = 25 * time.Millisecond

// ErrUnavailable is returned where the platform has no flock.
var ErrUnavailable = errors.New("flock not available on this platform")

// PathFor returns the lock file that guards dir: a sibling named "<dir>.lock".
func PathFor(dir string) string {
	return filepath.Clean(dir) + ".lock"
}
