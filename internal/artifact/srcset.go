package artifact

import (
	"strconv"
	"strings"

	"github.com/lostlessvisuals/localprep/internal/util"
)

// Srcset renders paths as a srcset value relative to docDir. Each path is
// paired with "{width}w" parsed from its name; names without a width token
// contribute the bare path. paths are expected in natural order.
func Srcset(docDir string, paths []string) string {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		rel := util.RelativeSlashPath(docDir, p)
		if w, ok := WidthOf(p); ok {
			parts = append(parts, rel+" "+strconv.Itoa(w)+"w")
			continue
		}
		parts = append(parts, rel)
	}
	return strings.Join(parts, ", ")
}

// PickFallback chooses the <img src> among fallback paths: the one at exactly
// canonicalWidth, else the first in natural order. ok is false when there are
// no fallbacks and the caller should keep its original reference.
func PickFallback(fallbacks []string, canonicalWidth int) (string, bool) {
	if len(fallbacks) == 0 {
		return "", false
	}
	for _, p := range fallbacks {
		if w, ok := WidthOf(p); ok && w == canonicalWidth {
			return p, true
		}
	}
	sorted := append([]string(nil), fallbacks...)
	SortNatural(sorted)
	return sorted[0], true
}
