package artifact

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestFallbackFormat(t *testing.T) {
	tests := []struct {
		source string
		want   Format
	}{
		{"photo.jpg", FormatJPEG},
		{"photo.JPEG", FormatJPEG},
		{"logo.png", FormatPNG},
		{"hero.webp", FormatPNG},
		{"hero.avif", FormatPNG},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := FallbackFormat(tt.source); got != tt.want {
				t.Errorf("FallbackFormat(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

func TestImageSet(t *testing.T) {
	src := filepath.Join("/site", "assets", "images", "photo.jpg")

	set := ImageSet(src, 480, true)
	want := []string{
		filepath.Join("/site", "assets", "images", "photo-480.avif"),
		filepath.Join("/site", "assets", "images", "photo-480.webp"),
		filepath.Join("/site", "assets", "images", "photo-480.jpg"),
	}
	if !slices.Equal(set.Paths(), want) {
		t.Errorf("Paths() = %v, want %v", set.Paths(), want)
	}
	if e, ok := set.Get(RoleFallback); !ok || e.Format != FormatJPEG || e.Width != 480 {
		t.Errorf("fallback entry = %+v, %v", e, ok)
	}

	noFallback := ImageSet(src, 480, false)
	if len(noFallback.Entries) != 2 {
		t.Errorf("expected 2 entries without fallback, got %d", len(noFallback.Entries))
	}
	if _, ok := noFallback.Get(RoleFallback); ok {
		t.Error("fallback role should be absent")
	}
}

func TestVideoSet(t *testing.T) {
	set := VideoSet(filepath.Join("/site", "assets", "media", "video1.mp4"))
	poster, _ := set.Get(RolePoster)
	transcode, _ := set.Get(RoleTranscode)

	if poster.Path != filepath.Join("/site", "assets", "media", "video1.jpg") {
		t.Errorf("poster = %s", poster.Path)
	}
	if transcode.Path != filepath.Join("/site", "assets", "media", "video1.webm") {
		t.Errorf("transcode = %s", transcode.Path)
	}
}

func TestStripWidth(t *testing.T) {
	tests := []struct {
		stem   string
		want   string
		wantOk bool
	}{
		{"photo-800", "photo", true},
		{"my-photo-1080", "my-photo", true},
		{"photo", "photo", false},
		{"photo-v2", "photo-v2", false},
		{"-800", "-800", false},
	}

	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			got, ok := StripWidth(tt.stem)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("StripWidth(%q) = %q, %v; want %q, %v", tt.stem, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestWidthOf(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOk bool
	}{
		{"photo-480.webp", 480, true},
		{"photo-1080.AVIF", 1080, true},
		{"photo-800.jpeg", 800, true},
		{"dir/photo-800.png", 800, true},
		{"photo.webp", 0, false},
		{"photo-large.webp", 0, false},
		{"photo-480.gif", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WidthOf(tt.name)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("WidthOf(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestMIMEType(t *testing.T) {
	if FormatAVIF.MIMEType() != "image/avif" || FormatWebP.MIMEType() != "image/webp" || FormatWebM.MIMEType() != "video/webm" {
		t.Error("unexpected MIME type mapping")
	}
	if Format("bmp").MIMEType() != "" {
		t.Error("unknown format should have no MIME type")
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGatherImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"photo.jpg",
		"photo-1080.avif", "photo-480.avif",
		"photo-1080.webp", "photo-480.webp",
		"photo-480.jpg", "photo-1080.jpg",
		"photograph-480.webp",
		".localprep_abc.webp",
		"other-480.avif",
	)

	c, err := GatherImages(dir, "photo")
	if err != nil {
		t.Fatalf("GatherImages() error = %v", err)
	}

	base := func(paths []string) []string {
		out := make([]string, len(paths))
		for i, p := range paths {
			out[i] = filepath.Base(p)
		}
		return out
	}
	if got := base(c.AVIF); !slices.Equal(got, []string{"photo-480.avif", "photo-1080.avif"}) {
		t.Errorf("AVIF = %v", got)
	}
	if got := base(c.WebP); !slices.Equal(got, []string{"photo-480.webp", "photo-1080.webp"}) {
		t.Errorf("WebP = %v", got)
	}
	if got := base(c.Fallback); !slices.Equal(got, []string{"photo-480.jpg", "photo-1080.jpg"}) {
		t.Errorf("Fallback = %v", got)
	}
	if !c.Complete() {
		t.Error("expected complete candidates")
	}
}

func TestGatherImagesIncomplete(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "photo.jpg", "photo-480.webp")

	c, err := GatherImages(dir, "photo")
	if err != nil {
		t.Fatal(err)
	}
	if c.Complete() {
		t.Error("missing AVIF must leave candidates incomplete")
	}
}

func TestGatherImagesNFC(t *testing.T) {
	dir := t.TempDir()
	// Decomposed e + combining acute, as macOS stores names.
	writeFiles(t, dir, "cafe\u0301-480.avif", "cafe\u0301-480.webp")

	c, err := GatherImages(dir, "caf\u00e9")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Complete() {
		t.Errorf("composed base should match decomposed names: %+v", c)
	}
}

func TestGatherVideo(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "video1.mp4", "video1.webm")

	v := GatherVideo(dir, "video1")
	if v.Poster != "" {
		t.Errorf("Poster = %q, want empty", v.Poster)
	}
	if v.Transcode != filepath.Join(dir, "video1.webm") {
		t.Errorf("Transcode = %q", v.Transcode)
	}
	if v.Original != filepath.Join(dir, "video1.mp4") {
		t.Errorf("Original = %q", v.Original)
	}
	if !v.Usable() {
		t.Error("transcode alone should be usable")
	}
	if GatherVideo(dir, "video2").Usable() {
		t.Error("no poster or transcode should be unusable")
	}
}
