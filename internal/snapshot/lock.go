package snapshot

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/lostlessvisuals/localprep/internal/errors"
)

// Lock is an advisory lock held for the duration of a run that may write a
// document.
type Lock struct {
	path string
	fl   *flock.Flock
}

// LockPath returns the lock file for document inside dir. The name is a
// SHA-1 UUID of the document's absolute path, so every spelling of the same
// path maps to the same lock.
func LockPath(dir, document string) string {
	abs, err := filepath.Abs(document)
	if err != nil {
		abs = document
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)))
	return filepath.Join(dir, "localprep-"+id.String()+".lock")
}

// Acquire takes the lock for document without blocking. If another run holds
// it the error is KindLocked. An empty dir means the system temp directory.
func Acquire(dir, document string) (*Lock, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewIOError("failed to create lock directory", err)
	}

	path := LockPath(dir, document)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.NewIOError("failed to acquire run lock", err)
	}
	if !ok {
		return nil, errors.NewLockedError(document)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. It is safe on a nil lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.fl.Unlock()
}
