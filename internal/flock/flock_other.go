// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package flock

import "context"

// Lock is the stub used where flock does not exist.
type Lock struct{}

// Acquire always returns ErrUnavailable on this platform.
func Acquire(context.Context, string) (*Lock, error) {
	return nil, ErrUnavailable
}

// Release is a no-op on this platform.
func (l *Lock) Release() {}
