package statusdb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"
)

// nonBlockingLockTimeout is the 1.5s non-blocking variant named in §5's
// concurrency model: a caller that only wants to know "is it free right
// now, roughly" polls TryLock for this long before giving up.
const nonBlockingLockTimeout = 1500 * time.Millisecond

// Lock serializes concurrent vcpkg invocations against one installed
// tree via an OS advisory file lock on vcpkg.lock, grounded on the
// teacher's vendored go-flock dependency.
type Lock struct {
	f *flock.Flock
}

// OpenLock returns a Lock bound to <installedRoot>/vcpkg.lock without
// acquiring it.
func OpenLock(installedRoot string) *Lock {
	return &Lock{f: flock.NewFlock(filepath.Join(installedRoot, "vcpkg.lock"))}
}

// Acquire blocks until the exclusive lock is held.
func (l *Lock) Acquire() error {
	if err := l.f.Lock(); err != nil {
		return errors.Wrap(err, "statusdb: acquiring vcpkg.lock")
	}
	return nil
}

// TryAcquire polls for the exclusive lock for up to 1.5s, the
// non-blocking variant named in §5, returning false (no error) if the
// lock could not be obtained in that window.
func (l *Lock) TryAcquire() (bool, error) {
	deadline := time.Now().Add(nonBlockingLockTimeout)
	for {
		ok, err := l.f.TryLock()
		if err != nil {
			return false, errors.Wrap(err, "statusdb: polling vcpkg.lock")
		}
		if ok {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// Release drops the lock.
func (l *Lock) Release() error {
	return errors.Wrap(l.f.Unlock(), "statusdb: releasing vcpkg.lock")
}

// WriteAtomic persists data to path by writing a temp file in the same
// directory, fsyncing it, then renaming over the destination -- so a
// crash mid-write never leaves a truncated status file (§7: "IO errors
// on the installed tree are fatal and leave the tree in the last
// consistent state").
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".status-*.tmp")
	if err != nil {
		return errors.Wrap(err, "statusdb: creating temp status file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "statusdb: writing temp status file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "statusdb: fsyncing temp status file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "statusdb: closing temp status file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "statusdb: renaming temp status file into place")
	}
	return nil
}
