package artifact

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/facette/natsort"
	"golang.org/x/text/unicode/norm"

	"github.com/lostlessvisuals/localprep/internal/util"
)

// Candidates are the variants found on disk for one image base name.
type Candidates struct {
	AVIF     []string
	WebP     []string
	Fallback []string
}

// Complete reports whether both essential modern formats are present.
func (c Candidates) Complete() bool {
	return len(c.AVIF) > 0 && len(c.WebP) > 0
}

// GatherImages lists files in dir whose name begins with "{base}-", grouped by
// extension and sorted in natural name order. Names are compared in NFC so
// decomposed file names still match composed markup.
func GatherImages(dir, base string) (Candidates, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Candidates{}, err
	}

	prefix := norm.NFC.String(base) + "-"
	var c Candidates
	for _, entry := range entries {
		if entry.IsDir() || util.IsHidden(entry.Name()) {
			continue
		}
		name := norm.NFC.String(entry.Name())
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(name)) {
		case ".avif":
			c.AVIF = append(c.AVIF, path)
		case ".webp":
			c.WebP = append(c.WebP, path)
		case ".jpg", ".jpeg", ".png":
			c.Fallback = append(c.Fallback, path)
		}
	}

	SortNatural(c.AVIF)
	SortNatural(c.WebP)
	SortNatural(c.Fallback)
	return c, nil
}

// VideoCandidates are the poster, transcode and original found for a video base.
type VideoCandidates struct {
	Poster    string
	Transcode string
	Original  string
}

// Usable reports whether the block can be rebuilt: a poster or transcode exists.
func (v VideoCandidates) Usable() bool {
	return v.Poster != "" || v.Transcode != ""
}

// GatherVideo looks up {base}.jpg, {base}.webm and {base}.mp4 in dir. Missing
// files are left empty.
func GatherVideo(dir, base string) VideoCandidates {
	find := func(ext string) string {
		p := filepath.Join(dir, base+ext)
		if util.FileExists(p) {
			return p
		}
		return ""
	}
	return VideoCandidates{
		Poster:    find(".jpg"),
		Transcode: find(".webm"),
		Original:  find(".mp4"),
	}
}

// SortNatural orders paths by base name with digit runs compared numerically,
// so photo-480 sorts before photo-1080.
func SortNatural(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return naturalLess(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
}

// naturalLess is a strict ordering over natsort.Compare, which reports true
// both ways for names like img-1 and img-01 and for equal names. Those ties
// fall back to byte order.
func naturalLess(a, b string) bool {
	ab, ba := natsort.Compare(a, b), natsort.Compare(b, a)
	if ab != ba {
		return ab
	}
	return a < b
}
