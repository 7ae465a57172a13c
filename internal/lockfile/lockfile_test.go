package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAcquireWritesOwner(t *testing.T) {
	dir := t.TempDir()
	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	if lock.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("unexpected lock path %s", lock.Path())
	}
	owner := readOwner(lock.Path())
	if owner.PID != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), owner.PID)
	}
	if owner.Started.IsZero() {
		t.Error("expected start time in lock file")
	}
}

func TestAcquireConflict(t *testing.T) {
	dir := t.TempDir()
	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	second, err := Acquire(dir)
	if err == nil {
		second.Release()
		t.Fatal("expected second Acquire to fail")
	}
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected *LockError, got %T", err)
	}
	if lockErr.Holder.PID != os.Getpid() {
		t.Errorf("expected holder PID %d, got %d", os.Getpid(), lockErr.Holder.PID)
	}
	if !strings.Contains(err.Error(), "running") {
		t.Errorf("expected holder state in message: %s", err)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Errorf("expected lock file removed, stat err=%v", err)
	}

	again, err := Acquire(dir)
	if err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	again.Release()
}

func TestAcquireCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected directory created: %v", err)
	}
}

func TestParseOwner(t *testing.T) {
	started := time.Date(2025, 11, 2, 7, 0, 0, 0, time.UTC)
	tests := []struct {
		content string
		want    Owner
	}{
		{"pid=1234\nstarted=2025-11-02T07:00:00Z\n", Owner{PID: 1234, Started: started}},
		{"pid=42\n", Owner{PID: 42}},
		{"pid=abc\nstarted=yesterday\n", Owner{}},
		{"", Owner{}},
		{"garbage", Owner{}},
	}
	for _, tt := range tests {
		got := parseOwner(tt.content)
		if got.PID != tt.want.PID || !got.Started.Equal(tt.want.Started) {
			t.Errorf("parseOwner(%q) = %+v, want %+v", tt.content, got, tt.want)
		}
	}
}

func TestOwnerString(t *testing.T) {
	if s := (Owner{}).String(); s != "unknown process" {
		t.Errorf("unexpected %q", s)
	}
	if s := (Owner{PID: os.Getpid()}).String(); !strings.Contains(s, "running") {
		t.Errorf("expected running state, got %q", s)
	}
}
