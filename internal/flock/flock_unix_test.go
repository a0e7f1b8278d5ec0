// SPDX-License-Identifier: MPL-2.0

//go:build unix

package flock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestAcquire_CreatesFile(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")
	lock, err := Acquire(t.Context(), lockPath)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	defer lock.Release()

	if _, statErr := os.Stat(lockPath); statErr != nil {
		t.Errorf("lock file not found at %s: %v", lockPath, statErr)
	}
}

func TestAcquire_BlocksConcurrent(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")
	lockA, err := Acquire(t.Context(), lockPath)
	if err != nil {
		t.Fatalf("Acquire A: %v", err)
	}

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		lockB, bErr := Acquire(context.Background(), lockPath)
		if bErr != nil {
			t.Errorf("Acquire B: %v", bErr)
			return
		}
		acquired.Store(true)
		lockB.Release()
	}()

	time.Sleep(100 * time.Millisecond)
	if acquired.Load() {
		t.Fatal("B acquired the lock while A still held it")
	}

	lockA.Release()

	select {
	case <-done:
		if !acquired.Load() {
			t.Fatal("B never acquired the lock after A released")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for B to acquire the lock")
	}
}

func TestAcquire_ContextCancelled(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")
	held, err := Acquire(t.Context(), lockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	if _, err := Acquire(ctx, lockPath); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestLock_Release_Idempotent(t *testing.T) {
	t.Parallel()

	lock, err := Acquire(t.Context(), filepath.Join(t.TempDir(), "test.lock"))
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	lock.Release()
	lock.Release()

	var nilLock *Lock
	nilLock.Release()
}

// TestAcquire_SerializedAccess checks that holders of the same lock see
// each other's writes to a shared file.
func TestAcquire_SerializedAccess(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")
	counterPath := filepath.Join(t.TempDir(), "counter")
	if err := os.WriteFile(counterPath, []byte("0"), 0o600); err != nil {
		t.Fatalf("failed to write initial counter: %v", err)
	}

	const workers = 5
	done := make(chan struct{}, workers)
	for range workers {
		go func() {
			defer func() { done <- struct{}{} }()

			lock, lockErr := Acquire(context.Background(), lockPath)
			if lockErr != nil {
				t.Errorf("Acquire() error: %v", lockErr)
				return
			}
			defer lock.Release()

			data, readErr := os.ReadFile(counterPath)
			if readErr != nil {
				t.Errorf("read counter: %v", readErr)
				return
			}
			var n int
			if _, scanErr := fmt.Sscanf(string(data), "%d", &n); scanErr != nil {
				t.Errorf("parse counter %q: %v", string(data), scanErr)
				return
			}
			if writeErr := os.WriteFile(counterPath, fmt.Appendf(nil, "%d", n+1), 0o600); writeErr != nil {
				t.Errorf("write counter: %v", writeErr)
			}
		}()
	}

	for range workers {
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for workers")
		}
	}

	data, err := os.ReadFile(counterPath)
	if err != nil {
		t.Fatalf("read final counter: %v", err)
	}
	if string(data) != fmt.Sprint(workers) {
		t.Errorf("counter = %s, want %d (serialization failure)", data, workers)
	}
}

func TestPathFor(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "scratch", "foo")
	if got, want := PathFor(dir+string(filepath.Separator)), dir+".lock"; got != want {
		t.Errorf("PathFor() = %q, want %q", got, want)
	}
}
