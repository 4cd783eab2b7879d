// Package discovery finds the source assets localprep derives artifacts from.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lostlessvisuals/localprep/internal/artifact"
	"github.com/lostlessvisuals/localprep/internal/util"
)

// Logger defines the interface for discovery logging.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Result contains the results of file discovery with metadata.
type Result struct {
	Files []string
	// SkippedCount counts regular files that are not sources of this kind.
	SkippedCount int
	// Derived lists files recognised as outputs of an earlier run.
	Derived []string
}

var videoSourceName = regexp.MustCompile(`^video\d+\.mp4$`)

// IsVideoSourceName reports whether name follows the video{N}.mp4 convention.
func IsVideoSourceName(name string) bool {
	return videoSourceName.MatchString(name)
}

// FindImageSources lists image sources in dir in natural name order. A file
// whose stem is {base}-{digits} is treated as a derived variant, not a
// source, when another image named {base} exists in dir.
func FindImageSources(dir string, logger Logger) (*Result, error) {
	names, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	stems := make(map[string]bool)
	for _, name := range names {
		if util.HasImageExt(name) {
			stems[util.Stem(name)] = true
		}
	}

	result := &Result{}
	for _, name := range names {
		fullPath := filepath.Join(dir, name)
		if !util.HasImageExt(name) {
			result.SkippedCount++
			continue
		}
		if base, ok := artifact.StripWidth(util.Stem(name)); ok && stems[base] {
			result.Derived = append(result.Derived, fullPath)
			continue
		}
		result.Files = append(result.Files, fullPath)
	}

	artifact.SortNatural(result.Files)
	if logger != nil {
		logDiscoveredFiles("image", result, logger)
	}
	return result, nil
}

// FindVideoSources lists video{N}.mp4 files in dir in natural name order.
func FindVideoSources(dir string, logger Logger) (*Result, error) {
	names, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, name := range names {
		if IsVideoSourceName(name) {
			result.Files = append(result.Files, filepath.Join(dir, name))
		} else {
			result.SkippedCount++
		}
	}

	artifact.SortNatural(result.Files)
	if logger != nil {
		logDiscoveredFiles("video", result, logger)
	}
	return result, nil
}

// listFiles returns the names of visible regular files in dir.
func listFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		// Skip hidden files, including in-progress encodes
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// logDiscoveredFiles logs the first 5 discovered files plus a count.
func logDiscoveredFiles(kind string, result *Result, logger Logger) {
	logger.Info("discovered sources", "kind", kind, "count", len(result.Files), "derived", len(result.Derived), "skipped", result.SkippedCount)

	maxToLog := min(5, len(result.Files))
	for i := 0; i < maxToLog; i++ {
		logger.Debug("source", "kind", kind, "file", filepath.Base(result.Files[i]))
	}
	if len(result.Files) > 5 {
		logger.Debug("more sources not listed", "kind", kind, "count", len(result.Files)-5)
	}
}
