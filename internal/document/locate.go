package document

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/lostlessvisuals/localprep/internal/artifact"
)

// BlockKind identifies the markup structure of a located block.
type BlockKind int

const (
	// BlockBare is an <img> outside any <picture>.
	BlockBare BlockKind = iota
	// BlockGrouped is a <picture> whose <img> references an image asset.
	BlockGrouped
	// BlockVideo is a <video> referencing a video{N}.mp4 source.
	BlockVideo
)

func (k BlockKind) String() string {
	switch k {
	case BlockBare:
		return "wrap"
	case BlockGrouped:
		return "update"
	case BlockVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Block is a markup unit addressed by its asset reference.
type Block struct {
	Kind BlockKind
	// Element is the <img>, <picture> or <video>.
	Element Element
	// Img is the <img> inside a grouped block.
	Img Element
	// Reference is the raw reference string found in the markup.
	Reference string
	// Base is the asset base name derived from Reference, in NFC.
	Base string
}

// Locator finds blocks that reference prepared assets.
type Locator struct {
	imageToken string
	video      *regexp.Regexp
}

// NewLocator creates a locator. imageToken must appear in an image reference;
// mediaPrefix is the path in front of video{N}.mp4 in a video reference.
func NewLocator(imageToken, mediaPrefix string) *Locator {
	return &Locator{
		imageToken: norm.NFC.String(imageToken),
		video:      regexp.MustCompile(regexp.QuoteMeta(mediaPrefix) + `(video\d+)\.mp4$`),
	}
}

// reference returns src, falling back to data-src.
func reference(e Element) string {
	if v := e.AttrValue("src"); v != "" {
		return v
	}
	return e.AttrValue("data-src")
}

func (l *Locator) isImageReference(ref string) bool {
	return ref != "" && strings.Contains(norm.NFC.String(ref), l.imageToken)
}

// BareImages returns every eligible <img> not nested in a <picture>.
func (l *Locator) BareImages(doc *Document) []Block {
	var blocks []Block
	for _, img := range doc.Root().Descendants("img") {
		if _, nested := img.Ancestor("picture"); nested {
			continue
		}
		ref := reference(img)
		if !l.isImageReference(ref) {
			continue
		}
		blocks = append(blocks, Block{
			Kind:      BlockBare,
			Element:   img,
			Img:       img,
			Reference: ref,
			Base:      referenceStem(ref),
		})
	}
	return blocks
}

// GroupedImages returns every <picture> whose first <img> is eligible. The
// base drops a trailing -{width} so a block already pointing at a variant
// resolves to its source.
func (l *Locator) GroupedImages(doc *Document) []Block {
	var blocks []Block
	for _, picture := range doc.Root().Descendants("picture") {
		img, ok := picture.First("img")
		if !ok {
			continue
		}
		ref := reference(img)
		if !l.isImageReference(ref) {
			continue
		}
		base, _ := artifact.StripWidth(referenceStem(ref))
		blocks = append(blocks, Block{
			Kind:      BlockGrouped,
			Element:   picture,
			Img:       img,
			Reference: ref,
			Base:      base,
		})
	}
	return blocks
}

// Videos returns every <video> whose own reference, or that of a nested
// <source>, names a video{N}.mp4 under the media prefix.
func (l *Locator) Videos(doc *Document) []Block {
	var blocks []Block
	for _, video := range doc.Root().Descendants("video") {
		candidates := []string{reference(video)}
		for _, source := range video.Descendants("source") {
			candidates = append(candidates, reference(source))
		}
		for _, ref := range candidates {
			m := l.video.FindStringSubmatch(norm.NFC.String(ref))
			if m == nil {
				continue
			}
			blocks = append(blocks, Block{
				Kind:      BlockVideo,
				Element:   video,
				Reference: ref,
				Base:      m[1],
			})
			break
		}
	}
	return blocks
}

// referenceStem returns the file stem of a reference URL in NFC, ignoring any
// query or fragment.
func referenceStem(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	base := path.Base(ref)
	return norm.NFC.String(strings.TrimSuffix(base, path.Ext(base)))
}
