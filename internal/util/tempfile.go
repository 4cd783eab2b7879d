package util

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// TempPrefix marks in-progress outputs written next to their final location.
const TempPrefix = ".localprep"

// MinFreeSpaceBytes is the free space below which CheckDiskSpace warns.
const MinFreeSpaceBytes = 512 * MiB

// TempFile is an open temporary file that is either committed to its final
// path or cleaned up.
type TempFile struct {
	path string
	file *os.File
}

// Path returns the temporary file's location.
func (t *TempFile) Path() string { return t.path }

// File returns the open handle for writing.
func (t *TempFile) File() *os.File { return t.file }

// Commit syncs and closes the file, applies mode and renames it onto dst.
func (t *TempFile) Commit(dst string, mode os.FileMode) error {
	if err := t.file.Sync(); err != nil {
		_ = t.Cleanup()
		return err
	}
	if err := t.file.Close(); err != nil {
		_ = os.Remove(t.path)
		return err
	}
	if err := os.Chmod(t.path, mode); err != nil {
		_ = os.Remove(t.path)
		return err
	}
	if err := os.Rename(t.path, dst); err != nil {
		_ = os.Remove(t.path)
		return err
	}
	return nil
}

// Cleanup closes and removes the file. It is safe to call after Commit.
func (t *TempFile) Cleanup() error {
	_ = t.file.Close()
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// EnsureDirectoryWritable verifies that path is an existing directory we can create files in.
func EnsureDirectoryWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return unix.Access(path, unix.W_OK)
}

// CreateTempFile creates and opens dir/prefix_<random>.ext.
func CreateTempFile(dir, prefix, ext string) (*TempFile, error) {
	path, err := CreateTempFilePath(dir, prefix, ext)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	return &TempFile{path: path, file: f}, nil
}

// CreateTempFilePath returns a unique dir/prefix_<random>.ext path without
// creating the file, for tools that write their own output.
func CreateTempFilePath(dir, prefix, ext string) (string, error) {
	suffix, err := generateRandomString(8)
	if err != nil {
		return "", err
	}
	name := prefix + "_" + suffix
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(dir, name), nil
}

// CleanupStaleTempFiles removes files in dir named prefix_* older than maxAge.
// A missing directory is not an error.
func CleanupStaleTempFiles(dir, prefix string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix+"_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if maxAge > 0 && info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// GetAvailableSpace returns the bytes available to unprivileged users on the
// filesystem holding path, or 0 if it cannot be determined.
func GetAvailableSpace(path string) uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize)
}

// CheckDiskSpace reports whether path has at least MinFreeSpaceBytes free.
// When it does not and logf is non-nil, a warning is written through logf.
func CheckDiskSpace(path string, logf func(format string, args ...any)) bool {
	available := GetAvailableSpace(path)
	if available == 0 || available >= MinFreeSpaceBytes {
		return true
	}
	if logf != nil {
		logf("low disk space on %s: %s available", path, FormatBytes(available))
	}
	return false
}

func generateRandomString(n int) (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
