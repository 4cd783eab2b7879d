package document

import (
	"github.com/lostlessvisuals/localprep/internal/artifact"
	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/util"
)

// Reasons a located block is left untouched.
const (
	ReasonMissingImageVariants = "no avif and webp variants on disk"
	ReasonMissingVideoOutputs  = "no poster or webm on disk"
)

// RewriteOptions configures a Rewriter.
type RewriteOptions struct {
	ImagesDir     string
	MediaDir      string
	Sizes         string
	FallbackWidth int
	MediaPrefix   string
}

// Change records what happened to one located block.
type Change struct {
	Kind      BlockKind
	Reference string
	Base      string
	// Changed is true when the block's markup differs after the rewrite.
	Changed bool
	// Reason explains why the block was left untouched.
	Reason string
}

// Rewriter applies idempotent edits to located blocks. References it writes
// are relative to the document's directory.
type Rewriter struct {
	docDir string
	opts   RewriteOptions
}

// NewRewriter creates a rewriter for a document living in docDir.
func NewRewriter(docDir string, opts RewriteOptions) *Rewriter {
	return &Rewriter{docDir: docDir, opts: opts}
}

// RewriteImages wraps bare images and updates existing <picture> blocks.
// Blocks are located before any edit, so a picture created by a wrap is not
// visited again in the same call.
func (r *Rewriter) RewriteImages(doc *Document, loc *Locator) ([]Change, error) {
	bare := loc.BareImages(doc)
	grouped := loc.GroupedImages(doc)

	changes := make([]Change, 0, len(bare)+len(grouped))
	for _, b := range append(bare, grouped...) {
		c, err := artifact.GatherImages(r.opts.ImagesDir, b.Base)
		if err != nil {
			return changes, errors.NewIOError("failed to list image variants", err)
		}

		change := Change{Kind: b.Kind, Reference: b.Reference, Base: b.Base}
		if !c.Complete() {
			change.Reason = ReasonMissingImageVariants
			changes = append(changes, change)
			continue
		}

		if b.Kind == BlockBare {
			r.wrap(b, c)
			change.Changed = true
		} else {
			before := b.Element.String()
			r.update(b, c)
			change.Changed = b.Element.String() != before
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// RewriteVideos rebuilds the sources of every located <video>.
func (r *Rewriter) RewriteVideos(doc *Document, loc *Locator) []Change {
	var changes []Change
	for _, b := range loc.Videos(doc) {
		change := Change{Kind: b.Kind, Reference: b.Reference, Base: b.Base}
		v := artifact.GatherVideo(r.opts.MediaDir, b.Base)
		if !v.Usable() {
			change.Reason = ReasonMissingVideoOutputs
			changes = append(changes, change)
			continue
		}

		before := b.Element.String()
		r.rebuildVideo(b, v)
		change.Changed = b.Element.String() != before
		changes = append(changes, change)
	}
	return changes
}

// wrap replaces a bare <img> with a <picture> holding avif and webp sources
// and a new <img> that keeps the original attributes.
func (r *Rewriter) wrap(b Block, c artifact.Candidates) {
	img := b.Element
	avif := artifact.Srcset(r.docDir, c.AVIF)
	webp := artifact.Srcset(r.docDir, c.WebP)

	picture := NewElement("picture")
	picture.Append(typedSource(artifact.FormatAVIF.MIMEType(), avif))
	picture.Append(typedSource(artifact.FormatWebP.MIMEType(), webp))

	newImg := NewElement("img")
	img.CopyAttrs(newImg, "src", "srcset", "sizes")
	newImg.Set("src", r.fallback(b, c))
	newImg.Set("srcset", webp)
	newImg.Set("sizes", r.sizes(img))
	newImg.SetDefault("loading", "lazy")
	newImg.SetDefault("decoding", "async")
	picture.Append(newImg)

	img.ReplaceWith(picture)
}

// update brings an existing <picture> in line with the variants on disk.
// Sources are matched by type, never by position.
func (r *Rewriter) update(b Block, c artifact.Candidates) {
	picture := b.Element
	webp := artifact.Srcset(r.docDir, c.WebP)

	avifSource := ensureSource(picture, artifact.FormatAVIF.MIMEType(), Element{})
	avifSource.Set("srcset", artifact.Srcset(r.docDir, c.AVIF))
	webpSource := ensureSource(picture, artifact.FormatWebP.MIMEType(), avifSource)
	webpSource.Set("srcset", webp)

	img := b.Img
	img.Set("src", r.fallback(b, c))
	img.Set("srcset", webp)
	img.Set("sizes", r.sizes(img))
	img.SetDefault("loading", "lazy")
	img.SetDefault("decoding", "async")
}

// rebuildVideo replaces every source of a <video> with a webm and an mp4
// source, in that order, and drops direct references.
func (r *Rewriter) rebuildVideo(b Block, v artifact.VideoCandidates) {
	video := b.Element
	video.Remove("src")
	video.Remove("data-src")
	for _, s := range video.Descendants("source") {
		s.Detach()
	}

	if v.Poster != "" {
		video.Set("poster", util.RelativeSlashPath(r.docDir, v.Poster))
	}
	if video.AttrValue("preload") == "" {
		video.Set("preload", "none")
	}

	webm := NewElement("source")
	webm.Set("type", artifact.FormatWebM.MIMEType())
	webm.Set("data-src", r.mediaReference(v.Transcode, b.Base, ".webm"))
	mp4 := NewElement("source")
	mp4.Set("type", "video/mp4")
	mp4.Set("data-src", r.mediaReference(v.Original, b.Base, ".mp4"))
	video.Append(webm)
	video.Append(mp4)
}

// fallback picks the <img src>: the canonical-width raster, else the first
// raster, else the block's current reference.
func (r *Rewriter) fallback(b Block, c artifact.Candidates) string {
	if p, ok := artifact.PickFallback(c.Fallback, r.opts.FallbackWidth); ok {
		return util.RelativeSlashPath(r.docDir, p)
	}
	return b.Reference
}

func (r *Rewriter) sizes(img Element) string {
	if s := img.AttrValue("sizes"); s != "" {
		return s
	}
	return r.opts.Sizes
}

// mediaReference is path relative to the document when the file exists, else
// the conventional prefix path.
func (r *Rewriter) mediaReference(path, base, ext string) string {
	if path != "" {
		return util.RelativeSlashPath(r.docDir, path)
	}
	return r.opts.MediaPrefix + base + ext
}

func typedSource(mime, srcset string) Element {
	s := NewElement("source")
	s.Set("type", mime)
	s.Set("srcset", srcset)
	return s
}

// ensureSource returns the single <source> of the given type inside picture,
// removing duplicates. A missing source is created first in the picture, or
// directly after `after` when it is valid.
func ensureSource(picture Element, mime string, after Element) Element {
	var found Element
	for _, s := range picture.Descendants("source") {
		if s.AttrValue("type") != mime {
			continue
		}
		if !found.Valid() {
			found = s
			continue
		}
		s.Detach()
	}
	if found.Valid() {
		return found
	}

	found = NewElement("source")
	found.Set("type", mime)
	if after.Valid() {
		after.After(found)
	} else {
		picture.Prepend(found)
	}
	return found
}
