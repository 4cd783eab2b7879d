// Package snapshot guards writes to the site document: a timestamped backup
// before every mutation, atomic replacement, and a per-document run lock.
package snapshot

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/util"
)

// TimestampLayout formats the backup suffix, e.g. 20261019-142501.
const TimestampLayout = "20060102-150405"

// maxCollisions bounds the -N suffix search for same-second backups.
const maxCollisions = 1000

// BackupName returns {path}.bak.{timestamp} for the given time.
func BackupName(path string, at time.Time) string {
	return path + ".bak." + at.Format(TimestampLayout)
}

// Backup copies path byte for byte to a new backup file and returns its
// name. Mode and modification time are preserved. An existing backup is
// never overwritten: a second backup within the same second gets -2, -3, ...
func Backup(path string, at time.Time) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", errors.NewIOError("failed to open document for backup", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", errors.NewIOError("failed to stat document", err)
	}

	name, dst, err := createExclusive(BackupName(path, at), info.Mode().Perm())
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(name)
		return "", errors.NewIOError("failed to write backup", err)
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		_ = os.Remove(name)
		return "", errors.NewIOError("failed to sync backup", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(name)
		return "", errors.NewIOError("failed to close backup", err)
	}

	// Mode is applied explicitly because OpenFile honours the umask.
	if err := os.Chmod(name, info.Mode().Perm()); err != nil {
		return "", errors.NewIOError("failed to set backup mode", err)
	}
	if err := os.Chtimes(name, info.ModTime(), info.ModTime()); err != nil {
		return "", errors.NewIOError("failed to set backup time", err)
	}
	return name, nil
}

func createExclusive(base string, mode os.FileMode) (string, *os.File, error) {
	for n := 1; n <= maxCollisions; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
		if err == nil {
			return name, f, nil
		}
		if !stderrors.Is(err, fs.ErrExist) {
			return "", nil, errors.NewIOError("failed to create backup", err)
		}
	}
	return "", nil, errors.NewIOError("failed to create backup", fmt.Errorf("too many backups named %s", base))
}

// WriteAtomic replaces path with data through a temporary file in the same
// directory. The existing file's mode is kept; a new file gets 0644.
func WriteAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	tmp, err := util.CreateTempFile(filepath.Dir(path), util.TempPrefix, ext)
	if err != nil {
		return errors.NewIOError("failed to create temporary document", err)
	}
	if _, err := tmp.File().Write(data); err != nil {
		_ = tmp.Cleanup()
		return errors.NewIOError("failed to write temporary document", err)
	}
	if err := tmp.Commit(path, mode); err != nil {
		return errors.NewIOError("failed to replace document", err)
	}
	return nil
}
