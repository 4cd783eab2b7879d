package util

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// imageExts are the extensions treated as image sources or variants,
// compared case-insensitively.
var imageExts = []string{".jpg", ".jpeg", ".png", ".webp", ".avif"}

// HasImageExt reports whether name ends in a known image extension.
func HasImageExt(name string) bool {
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(name)))
}

// IsHidden reports whether the base name of path starts with a dot. In-flight
// temp outputs are hidden this way.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// Stem is the base name without its final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func FileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FileExists is true for anything at path that is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RelativeSlashPath returns target relative to baseDir with forward slashes,
// the form markup references use. If no relative path exists the slash form
// of target is returned.
func RelativeSlashPath(baseDir, target string) string {
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}
