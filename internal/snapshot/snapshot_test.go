package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/util"
)

func writeDoc(t *testing.T, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
	past := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBackupName(t *testing.T) {
	at := time.Date(2026, 10, 19, 14, 25, 1, 0, time.Local)
	if got := BackupName("/site/index.html", at); got != "/site/index.html.bak.20261019-142501" {
		t.Errorf("BackupName() = %s", got)
	}
}

func TestBackupPreservesBytesModeAndTime(t *testing.T) {
	path := writeDoc(t, "<p>original</p>", 0o640)
	src, _ := os.Stat(path)

	name, err := Backup(path, time.Now())
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<p>original</p>" {
		t.Errorf("backup content = %q", data)
	}
	info, _ := os.Stat(name)
	if info.Mode().Perm() != 0o640 {
		t.Errorf("backup mode = %v, want 0640", info.Mode().Perm())
	}
	if !info.ModTime().Equal(src.ModTime()) {
		t.Errorf("backup mtime = %v, want %v", info.ModTime(), src.ModTime())
	}
}

func TestBackupNeverOverwrites(t *testing.T) {
	path := writeDoc(t, "v1", 0o644)
	at := time.Now()

	first, err := Backup(path, at)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := Backup(path, at)
	if err != nil {
		t.Fatal(err)
	}
	third, err := Backup(path, at)
	if err != nil {
		t.Fatal(err)
	}

	if second != first+"-2" || third != first+"-3" {
		t.Errorf("collision names = %s, %s (first %s)", second, third, first)
	}
	if data, _ := os.ReadFile(first); string(data) != "v1" {
		t.Errorf("first backup overwritten: %q", data)
	}
}

func TestBackupMissingDocument(t *testing.T) {
	_, err := Backup(filepath.Join(t.TempDir(), "absent.html"), time.Now())
	if !errors.IsKind(err, errors.KindIO) {
		t.Errorf("err = %v, want I/O error", err)
	}
}

func TestWriteAtomic(t *testing.T) {
	path := writeDoc(t, "old", 0o600)

	if err := WriteAtomic(path, []byte("new content")); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !bytes.Equal(data, []byte("new content")) {
		t.Errorf("content = %q", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), util.TempPrefix) {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestLockPathIsStable(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	a := LockPath(dir, filepath.Join(wd, "site", "index.html"))
	b := LockPath(dir, filepath.Join("site", ".", "index.html"))
	if a != b {
		t.Errorf("lock paths differ for the same document: %s vs %s", a, b)
	}
	if c := LockPath(dir, "other.html"); c == a {
		t.Error("different documents share a lock")
	}
}

func TestAcquireIsExclusive(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "index.html")

	first, err := Acquire(dir, doc)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := Acquire(dir, doc); !errors.IsKind(err, errors.KindLocked) {
		t.Errorf("second Acquire() err = %v, want KindLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatal(err)
	}
	again, err := Acquire(dir, doc)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = again.Release()

	var nilLock *Lock
	if err := nilLock.Release(); err != nil {
		t.Errorf("nil Release() = %v", err)
	}
}
