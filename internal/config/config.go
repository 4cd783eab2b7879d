package config

import (
	"fmt"
	"slices"
	"strings"
)

// Default constants
const (
	// DefaultHTML is the document rewritten when no path is given.
	DefaultHTML = "index.html"

	// DefaultImagesDir holds image sources and their derived variants.
	DefaultImagesDir = "assets/images"

	// DefaultMediaDir holds video sources, posters and transcodes.
	DefaultMediaDir = "assets/media"

	// DefaultSizes is the sizes= value applied when an <img> has none.
	DefaultSizes = "(min-width:1200px) 33vw, (min-width:768px) 50vw, 100vw"

	// DefaultReferenceToken marks image references eligible for rewriting.
	DefaultReferenceToken = "assets/images/"

	// DefaultMediaPrefix is the path prefix of video references in markup.
	DefaultMediaPrefix = "assets/media/"

	// DefaultFallbackWidth is the canonical width chosen for the <img> fallback.
	DefaultFallbackWidth = 800

	// DefaultQuality is the JPEG/WebP quality for derived images.
	DefaultQuality = 82

	// DefaultAVIFCRF is the libaom CRF for still AVIF images.
	DefaultAVIFCRF uint8 = 28

	// DefaultAVIFCPUUsed is the libaom cpu-used for still AVIF images.
	DefaultAVIFCPUUsed uint8 = 6

	// DefaultAVIFSVTPreset is the SVT-AV1 preset of the AVIF fallback pathway.
	DefaultAVIFSVTPreset uint8 = 8

	// DefaultVideoCRF is the libaom CRF for WebM transcodes.
	DefaultVideoCRF uint8 = 30

	// DefaultVideoCPUUsed is the libaom cpu-used for WebM transcodes.
	DefaultVideoCPUUsed uint8 = 4

	// DefaultAudioBitrate is the Opus bitrate for WebM transcodes.
	DefaultAudioBitrate = "128k"

	// DefaultPosterFraction is the share of the duration at which posters are captured.
	DefaultPosterFraction = 0.10

	// DefaultMinPosterSeconds is the earliest poster capture time.
	DefaultMinPosterSeconds = 1.0

	// DefaultPosterQuality is the ffmpeg -q:v for poster JPEGs.
	DefaultPosterQuality = 2

	// MaxCRF is the maximum valid CRF value.
	MaxCRF uint8 = 63

	// MaxCPUUsed is the maximum libaom cpu-used value.
	MaxCPUUsed uint8 = 8

	// MaxSVTPreset is the maximum valid SVT-AV1 preset value.
	MaxSVTPreset uint8 = 13
)

// DefaultWidths returns the responsive widths used when none are configured.
func DefaultWidths() []int {
	return []int{480, 800, 1080}
}

// Paths contains document and asset locations.
type Paths struct {
	HTML      string `toml:"html"`
	ImagesDir string `toml:"images_dir"`
	MediaDir  string `toml:"media_dir"`
	LogDir    string `toml:"log_dir"`
}

// Images contains responsive image settings.
type Images struct {
	Widths         []int  `toml:"widths"`
	Sizes          string `toml:"sizes"`
	FallbackRaster bool   `toml:"fallback_raster"`
	FallbackWidth  int    `toml:"fallback_width"`
	ReferenceToken string `toml:"reference_token"`
	Quality        int    `toml:"quality"`
	AVIFCRF        uint8  `toml:"avif_crf"`
	AVIFCPUUsed    uint8  `toml:"avif_cpu_used"`
	AVIFSVTPreset  uint8  `toml:"avif_svt_preset"`
}

// Videos contains poster and transcode settings.
type Videos struct {
	MediaPrefix      string  `toml:"media_prefix"`
	CRF              uint8   `toml:"crf"`
	CPUUsed          uint8   `toml:"cpu_used"`
	AudioBitrate     string  `toml:"audio_bitrate"`
	PosterFraction   float64 `toml:"poster_fraction"`
	MinPosterSeconds float64 `toml:"min_poster_seconds"`
	PosterQuality    int     `toml:"poster_quality"`
}

// Logging contains log file settings.
type Logging struct {
	Verbose  bool `toml:"verbose"`
	Disabled bool `toml:"disabled"`
}

// Run contains per-invocation mode flags. They are never read from a file.
type Run struct {
	OnlyImages  bool
	OnlyVideos  bool
	ForceImages bool
	ForceVideos bool
	DryRun      bool
	JSON        bool
}

// Config holds all configuration for a localprep run.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Images  Images  `toml:"images"`
	Videos  Videos  `toml:"videos"`
	Logging Logging `toml:"logging"`
	Run     Run     `toml:"-"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Paths: Paths{
			HTML:      DefaultHTML,
			ImagesDir: DefaultImagesDir,
			MediaDir:  DefaultMediaDir,
			LogDir:    defaultLogDir(),
		},
		Images: Images{
			Widths:         DefaultWidths(),
			Sizes:          DefaultSizes,
			FallbackRaster: true,
			FallbackWidth:  DefaultFallbackWidth,
			ReferenceToken: DefaultReferenceToken,
			Quality:        DefaultQuality,
			AVIFCRF:        DefaultAVIFCRF,
			AVIFCPUUsed:    DefaultAVIFCPUUsed,
			AVIFSVTPreset:  DefaultAVIFSVTPreset,
		},
		Videos: Videos{
			MediaPrefix:      DefaultMediaPrefix,
			CRF:              DefaultVideoCRF,
			CPUUsed:          DefaultVideoCPUUsed,
			AudioBitrate:     DefaultAudioBitrate,
			PosterFraction:   DefaultPosterFraction,
			MinPosterSeconds: DefaultMinPosterSeconds,
			PosterQuality:    DefaultPosterQuality,
		},
	}
}

// DoImages reports whether image variants and <picture> blocks are processed.
func (c *Config) DoImages() bool {
	return !c.Run.OnlyVideos
}

// DoVideos reports whether posters, transcodes and <video> blocks are processed.
func (c *Config) DoVideos() bool {
	return !c.Run.OnlyImages
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Run.OnlyImages && c.Run.OnlyVideos {
		return ErrConflictingModes
	}

	for name, p := range map[string]string{"html": c.Paths.HTML, "images_dir": c.Paths.ImagesDir, "media_dir": c.Paths.MediaDir} {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: %s", ErrMissingPath, name)
		}
	}

	if len(c.Images.Widths) == 0 {
		return fmt.Errorf("%w: at least one width is required", ErrInvalidWidth)
	}
	for i, w := range c.Images.Widths {
		if w <= 0 {
			return fmt.Errorf("%w: must be positive, got %d", ErrInvalidWidth, w)
		}
		if slices.Contains(c.Images.Widths[:i], w) {
			return fmt.Errorf("%w: %d listed twice", ErrInvalidWidth, w)
		}
	}
	if c.Images.FallbackWidth <= 0 {
		return fmt.Errorf("%w: fallback_width must be positive, got %d", ErrInvalidWidth, c.Images.FallbackWidth)
	}

	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("%w: must be 1-100, got %d", ErrInvalidQuality, c.Images.Quality)
	}

	if c.Images.AVIFCRF > MaxCRF {
		return fmt.Errorf("%w: avif_crf must be 0-%d, got %d", ErrInvalidCRF, MaxCRF, c.Images.AVIFCRF)
	}
	if c.Videos.CRF > MaxCRF {
		return fmt.Errorf("%w: crf must be 0-%d, got %d", ErrInvalidCRF, MaxCRF, c.Videos.CRF)
	}

	if c.Images.AVIFCPUUsed > MaxCPUUsed {
		return fmt.Errorf("%w: avif_cpu_used must be 0-%d, got %d", ErrInvalidCPUUsed, MaxCPUUsed, c.Images.AVIFCPUUsed)
	}
	if c.Videos.CPUUsed > MaxCPUUsed {
		return fmt.Errorf("%w: cpu_used must be 0-%d, got %d", ErrInvalidCPUUsed, MaxCPUUsed, c.Videos.CPUUsed)
	}

	if c.Images.AVIFSVTPreset > MaxSVTPreset {
		return fmt.Errorf("%w: must be 0-%d, got %d", ErrInvalidSVTPreset, MaxSVTPreset, c.Images.AVIFSVTPreset)
	}

	if c.Videos.PosterFraction <= 0 || c.Videos.PosterFraction >= 1 {
		return fmt.Errorf("%w: must be between 0 and 1, got %g", ErrInvalidPosterFraction, c.Videos.PosterFraction)
	}

	return nil
}

// SortedWidths returns the configured widths in ascending order.
func (c *Config) SortedWidths() []int {
	widths := slices.Clone(c.Images.Widths)
	slices.Sort(widths)
	return widths
}
