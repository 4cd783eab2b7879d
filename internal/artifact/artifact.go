// Package artifact defines how derived files are named, grouped into role
// sets, discovered on disk and turned into markup reference lists.
//
// Naming is the only link between the filesystem and the document: an image
// source photo.jpg yields photo-{width}.{avif,webp,jpg}; a video source
// video1.mp4 yields video1.jpg (poster) and video1.webm (transcode).
package artifact

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lostlessvisuals/localprep/internal/util"
)

// Role names the purpose of an artifact within its set.
type Role string

const (
	RoleAVIF      Role = "avif"
	RoleWebP      Role = "webp"
	RoleFallback  Role = "fallback"
	RolePoster    Role = "poster"
	RoleTranscode Role = "transcode"
)

// Format is an output encoding, named by its file extension.
type Format string

const (
	FormatAVIF Format = "avif"
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
	FormatWebM Format = "webm"
)

// MIMEType returns the type= marker used on <source> elements.
func (f Format) MIMEType() string {
	switch f {
	case FormatAVIF:
		return "image/avif"
	case FormatWebP:
		return "image/webp"
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebM:
		return "video/webm"
	default:
		return ""
	}
}

// Entry is one artifact of a set.
type Entry struct {
	Role   Role
	Format Format
	Width  int
	Path   string
}

// Set is an ordered role to path mapping for one source.
type Set struct {
	Source  string
	Entries []Entry
}

// Paths returns the artifact paths in set order.
func (s Set) Paths() []string {
	paths := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		paths[i] = e.Path
	}
	return paths
}

// Get returns the entry for role.
func (s Set) Get(role Role) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Role == role {
			return e, true
		}
	}
	return Entry{}, false
}

// FallbackFormat returns the raster fallback format for an image source:
// JPEG for JPEG sources, PNG for everything else.
func FallbackFormat(source string) Format {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

// VariantPath returns {dir}/{stem}-{width}.{format} beside source.
func VariantPath(source string, width int, format Format) string {
	name := fmt.Sprintf("%s-%d.%s", util.Stem(source), width, format)
	return filepath.Join(filepath.Dir(source), name)
}

// ImageSet builds the artifact set for one image source at one width.
func ImageSet(source string, width int, withFallback bool) Set {
	set := Set{Source: source}
	set.Entries = append(set.Entries,
		Entry{Role: RoleAVIF, Format: FormatAVIF, Width: width, Path: VariantPath(source, width, FormatAVIF)},
		Entry{Role: RoleWebP, Format: FormatWebP, Width: width, Path: VariantPath(source, width, FormatWebP)},
	)
	if withFallback {
		f := FallbackFormat(source)
		set.Entries = append(set.Entries, Entry{Role: RoleFallback, Format: f, Width: width, Path: VariantPath(source, width, f)})
	}
	return set
}

// VideoSet builds the poster and transcode set for a video source.
func VideoSet(source string) Set {
	dir := filepath.Dir(source)
	stem := util.Stem(source)
	return Set{
		Source: source,
		Entries: []Entry{
			{Role: RolePoster, Format: FormatJPEG, Path: filepath.Join(dir, stem+".jpg")},
			{Role: RoleTranscode, Format: FormatWebM, Path: filepath.Join(dir, stem+".webm")},
		},
	}
}

var (
	widthSuffix = regexp.MustCompile(`^(.+)-(\d+)$`)
	widthToken  = regexp.MustCompile(`(?i)-(\d+)\.(webp|avif|jpe?g|png)$`)
)

// StripWidth removes a trailing -{digits} from stem. ok is false when stem
// carries no such suffix.
func StripWidth(stem string) (base string, ok bool) {
	m := widthSuffix.FindStringSubmatch(stem)
	if m == nil {
		return stem, false
	}
	return m[1], true
}

// WidthOf parses the width from a variant file name such as photo-480.webp.
func WidthOf(name string) (int, bool) {
	m := widthToken.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	w, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return w, true
}
