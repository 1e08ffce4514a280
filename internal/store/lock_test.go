package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriterLock_LockUnlock(t *testing.T) {
	dir := t.TempDir()
	lock := NewWriterLock(dir)

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); os.IsNotExist(err) {
		t.Error("lock file was not created")
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() failed: %v", err)
	}
}

func TestWriterLock_UnlockWithoutLockIsNoop(t *testing.T) {
	lock := NewWriterLock(t.TempDir())
	if err := lock.Unlock(); err != nil {
		t.Errorf("Unlock() without Lock() should not error: %v", err)
	}
}

func TestWriterLock_DoubleUnlockIsNoop(t *testing.T) {
	dir := t.TempDir()
	lock := NewWriterLock(dir)

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("first Unlock() failed: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Errorf("second Unlock() should not error: %v", err)
	}
}

func TestWriterLock_TryLockSucceedsWhenFree(t *testing.T) {
	dir := t.TempDir()
	lock := NewWriterLock(dir)

	acquired, err := lock.TryLock()
	if err != nil {
		t.Fatalf("TryLock() failed: %v", err)
	}
	if !acquired {
		t.Error("TryLock() should succeed when the lock is free")
	}
	_ = lock.Unlock()
}

func TestWriterLock_TryLockFailsWhenHeld(t *testing.T) {
	dir := t.TempDir()

	lock1 := NewWriterLock(dir)
	if err := lock1.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	defer lock1.Unlock()

	lock2 := NewWriterLock(dir)
	acquired, err := lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error: %v", err)
	}
	if acquired {
		t.Error("TryLock() should fail while another process holds the lock")
		_ = lock2.Unlock()
	}
}

func TestWriterLock_Path(t *testing.T) {
	dir := "/some/dir"
	lock := NewWriterLock(dir)

	expected := filepath.Join(dir, ".index.lock")
	if lock.Path() != expected {
		t.Errorf("Path() = %q, want %q", lock.Path(), expected)
	}
}

func TestWriterLock_CreatesMissingDirectory(t *testing.T) {
	baseDir := t.TempDir()
	nestedDir := filepath.Join(baseDir, "sessions", "abc", "tantivy")
	lock := NewWriterLock(nestedDir)

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed to create nested directory: %v", err)
	}
	defer lock.Unlock()

	if _, err := os.Stat(nestedDir); os.IsNotExist(err) {
		t.Error("Lock() did not create the nested directory")
	}
}

func TestWriterLock_IsLockedTracksState(t *testing.T) {
	lock := NewWriterLock(t.TempDir())

	if lock.IsLocked() {
		t.Error("new lock should not be locked")
	}
	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if !lock.IsLocked() {
		t.Error("lock should be locked after Lock()")
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() failed: %v", err)
	}
	if lock.IsLocked() {
		t.Error("lock should not be locked after Unlock()")
	}
}

func TestWriterLock_FailedTryLockDoesNotMarkLocked(t *testing.T) {
	dir := t.TempDir()

	lock1 := NewWriterLock(dir)
	if err := lock1.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	defer lock1.Unlock()

	lock2 := NewWriterLock(dir)
	acquired, err := lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error: %v", err)
	}
	if acquired {
		t.Fatal("TryLock() should have failed")
	}
	if lock2.IsLocked() {
		t.Error("failed TryLock() should not mark the lock as locked")
	}
}
