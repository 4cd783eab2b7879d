package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Paths.HTML != "index.html" {
		t.Errorf("expected HTML=index.html, got %s", cfg.Paths.HTML)
	}
	if cfg.Paths.ImagesDir != "assets/images" {
		t.Errorf("expected ImagesDir=assets/images, got %s", cfg.Paths.ImagesDir)
	}
	if cfg.Paths.MediaDir != "assets/media" {
		t.Errorf("expected MediaDir=assets/media, got %s", cfg.Paths.MediaDir)
	}

	// Check defaults
	if !slices.Equal(cfg.Images.Widths, []int{480, 800, 1080}) {
		t.Errorf("expected widths [480 800 1080], got %v", cfg.Images.Widths)
	}
	if cfg.Images.Sizes != DefaultSizes {
		t.Errorf("expected Sizes=%q, got %q", DefaultSizes, cfg.Images.Sizes)
	}
	if !cfg.Images.FallbackRaster {
		t.Error("expected raster fallback enabled by default")
	}
	if cfg.Videos.CRF != DefaultVideoCRF {
		t.Errorf("expected video CRF=%d, got %d", DefaultVideoCRF, cfg.Videos.CRF)
	}
	if !cfg.DoImages() || !cfg.DoVideos() {
		t.Error("expected both stages enabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantErr      bool
		wantSentinel error
	}{
		{
			name:    "default config is valid",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "only images and only videos conflict",
			modify: func(c *Config) {
				c.Run.OnlyImages = true
				c.Run.OnlyVideos = true
			},
			wantErr:      true,
			wantSentinel: ErrConflictingModes,
		},
		{
			name:         "empty html path is invalid",
			modify:       func(c *Config) { c.Paths.HTML = " " },
			wantErr:      true,
			wantSentinel: ErrMissingPath,
		},
		{
			name:         "no widths is invalid",
			modify:       func(c *Config) { c.Images.Widths = nil },
			wantErr:      true,
			wantSentinel: ErrInvalidWidth,
		},
		{
			name:         "zero width is invalid",
			modify:       func(c *Config) { c.Images.Widths = []int{480, 0} },
			wantErr:      true,
			wantSentinel: ErrInvalidWidth,
		},
		{
			name:         "duplicate width is invalid",
			modify:       func(c *Config) { c.Images.Widths = []int{480, 800, 480} },
			wantErr:      true,
			wantSentinel: ErrInvalidWidth,
		},
		{
			name:    "single width is valid",
			modify:  func(c *Config) { c.Images.Widths = []int{1200} },
			wantErr: false,
		},
		{
			name:         "quality 0 is invalid",
			modify:       func(c *Config) { c.Images.Quality = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidQuality,
		},
		{
			name:         "quality 101 is invalid",
			modify:       func(c *Config) { c.Images.Quality = 101 },
			wantErr:      true,
			wantSentinel: ErrInvalidQuality,
		},
		{
			name:         "avif crf 64 is invalid",
			modify:       func(c *Config) { c.Images.AVIFCRF = 64 },
			wantErr:      true,
			wantSentinel: ErrInvalidCRF,
		},
		{
			name:         "video crf 64 is invalid",
			modify:       func(c *Config) { c.Videos.CRF = 64 },
			wantErr:      true,
			wantSentinel: ErrInvalidCRF,
		},
		{
			name:    "video crf 63 is valid",
			modify:  func(c *Config) { c.Videos.CRF = 63 },
			wantErr: false,
		},
		{
			name:         "cpu-used 9 is invalid",
			modify:       func(c *Config) { c.Videos.CPUUsed = 9 },
			wantErr:      true,
			wantSentinel: ErrInvalidCPUUsed,
		},
		{
			name:         "svt preset 14 is invalid",
			modify:       func(c *Config) { c.Images.AVIFSVTPreset = 14 },
			wantErr:      true,
			wantSentinel: ErrInvalidSVTPreset,
		},
		{
			name:         "poster fraction 1 is invalid",
			modify:       func(c *Config) { c.Videos.PosterFraction = 1 },
			wantErr:      true,
			wantSentinel: ErrInvalidPosterFraction,
		},
		{
			name:         "poster fraction 0 is invalid",
			modify:       func(c *Config) { c.Videos.PosterFraction = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidPosterFraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want sentinel %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestStageSelection(t *testing.T) {
	cfg := NewConfig()
	cfg.Run.OnlyImages = true
	if !cfg.DoImages() || cfg.DoVideos() {
		t.Error("--only-images should disable videos only")
	}

	cfg = NewConfig()
	cfg.Run.OnlyVideos = true
	if cfg.DoImages() || !cfg.DoVideos() {
		t.Error("--only-videos should disable images only")
	}
}

func TestSortedWidths(t *testing.T) {
	cfg := NewConfig()
	cfg.Images.Widths = []int{1080, 480, 800}

	got := cfg.SortedWidths()
	if !slices.Equal(got, []int{480, 800, 1080}) {
		t.Errorf("SortedWidths() = %v", got)
	}
	if cfg.Images.Widths[0] != 1080 {
		t.Error("SortedWidths() must not reorder the configured slice")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.toml")
	content := `
[paths]
html = "public/index.html"

[images]
widths = [320, 640]
fallback_raster = false

[videos]
crf = 34
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Errorf("resolved = %s, want %s", resolved, path)
	}
	if cfg.Paths.HTML != "public/index.html" {
		t.Errorf("HTML = %s", cfg.Paths.HTML)
	}
	if !slices.Equal(cfg.Images.Widths, []int{320, 640}) {
		t.Errorf("Widths = %v", cfg.Images.Widths)
	}
	if cfg.Images.FallbackRaster {
		t.Error("expected fallback_raster=false from file")
	}
	if cfg.Videos.CRF != 34 {
		t.Errorf("CRF = %d, want 34", cfg.Videos.CRF)
	}
	// Unset keys keep defaults.
	if cfg.Paths.ImagesDir != DefaultImagesDir {
		t.Errorf("ImagesDir = %s, want default", cfg.Paths.ImagesDir)
	}
	if cfg.Images.Sizes != DefaultSizes {
		t.Errorf("Sizes = %q, want default", cfg.Images.Sizes)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if exists {
		t.Error("expected exists=false for a missing file")
	}
	if cfg.Paths.HTML != DefaultHTML {
		t.Errorf("HTML = %s, want default", cfg.Paths.HTML)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[images]\nwidth = [480]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSampleConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample() error = %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load(sample) error = %v", err)
	}
	if !exists {
		t.Fatal("sample config not found after CreateSample")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("sample config invalid: %v", err)
	}
	if !slices.Equal(cfg.Images.Widths, DefaultWidths()) {
		t.Errorf("sample widths = %v", cfg.Images.Widths)
	}
}

func TestNormalize(t *testing.T) {
	cfg := NewConfig()
	cfg.Paths.HTML = "site/index.html"
	cfg.Images.Sizes = ""
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !filepath.IsAbs(cfg.Paths.HTML) {
		t.Errorf("HTML not absolute: %s", cfg.Paths.HTML)
	}
	if !strings.HasSuffix(cfg.Paths.HTML, filepath.Join("site", "index.html")) {
		t.Errorf("HTML = %s", cfg.Paths.HTML)
	}
	if cfg.Images.Sizes != DefaultSizes {
		t.Errorf("empty sizes should normalize to default, got %q", cfg.Images.Sizes)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/site")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "site") {
		t.Errorf("ExpandPath(~/site) = %s", got)
	}
}

func TestMarshalIncludesSections(t *testing.T) {
	out, err := NewConfig().Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	text := string(out)
	for _, want := range []string{"[paths]", "[images]", "[videos]", "widths", "fallback_raster"} {
		if !strings.Contains(text, want) {
			t.Errorf("marshalled config missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "DryRun") {
		t.Error("run flags must not be marshalled")
	}
}
