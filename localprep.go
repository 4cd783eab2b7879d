// Package localprep prepares media for a static site: responsive image
// variants, video posters and WebM transcodes, and an idempotent rewrite of
// the page that references them.
//
// Basic usage:
//
//	prep, err := localprep.New(
//	    localprep.WithHTML("public/index.html"),
//	    localprep.WithWidths(480, 960),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := prep.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("%d artifacts, document changed: %v\n",
//	    summary.ImageArtifacts+summary.VideoArtifacts, summary.DocumentChanged)
package localprep

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lostlessvisuals/localprep/internal/config"
	"github.com/lostlessvisuals/localprep/internal/logging"
	"github.com/lostlessvisuals/localprep/internal/processing"
	"github.com/lostlessvisuals/localprep/internal/reporter"
)

// Reporter receives progress events during a run.
type Reporter = reporter.Reporter

// Summary describes a completed run.
type Summary = reporter.RunSummary

// NullReporter discards every event.
type NullReporter = reporter.NullReporter

// NewJSONReporter returns a reporter that writes NDJSON events to stdout.
func NewJSONReporter() Reporter {
	return reporter.NewJSONReporter()
}

// NewTerminalReporter returns the human-readable reporter used by the CLI.
func NewTerminalReporter(verbose bool) Reporter {
	return reporter.NewTerminalReporter(verbose)
}

// ParseWidths parses a comma-separated list of positive pixel widths, e.g.
// "480,800,1080".
func ParseWidths(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty width list", config.ErrInvalidWidth)
	}

	parts := strings.Split(s, ",")
	widths := make([]int, 0, len(parts))
	for _, part := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", config.ErrInvalidWidth, strings.TrimSpace(part))
		}
		if w <= 0 {
			return nil, fmt.Errorf("%w: must be positive, got %d", config.ErrInvalidWidth, w)
		}
		widths = append(widths, w)
	}
	return widths, nil
}

// Preparer runs localprep passes with a fixed configuration.
type Preparer struct {
	config   *config.Config
	reporter Reporter
	logDir   string
}

// Option configures a Preparer.
type Option func(*Preparer)

// New creates a Preparer with the default configuration and the given options.
func New(opts ...Option) (*Preparer, error) {
	p := &Preparer{config: config.NewConfig()}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.config.Normalize(); err != nil {
		return nil, err
	}
	if err := p.config.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// WithHTML sets the document to rewrite.
func WithHTML(path string) Option {
	return func(p *Preparer) {
		p.config.Paths.HTML = path
	}
}

// WithImagesDir sets the directory of image sources and variants.
func WithImagesDir(dir string) Option {
	return func(p *Preparer) {
		p.config.Paths.ImagesDir = dir
	}
}

// WithMediaDir sets the directory of video sources, posters and transcodes.
func WithMediaDir(dir string) Option {
	return func(p *Preparer) {
		p.config.Paths.MediaDir = dir
	}
}

// WithWidths sets the responsive widths.
func WithWidths(widths ...int) Option {
	return func(p *Preparer) {
		p.config.Images.Widths = widths
	}
}

// WithSizes sets the sizes= value applied to images that have none.
func WithSizes(sizes string) Option {
	return func(p *Preparer) {
		p.config.Images.Sizes = sizes
	}
}

// WithoutFallbackRaster skips JPEG/PNG variants and writes AVIF and WebP only.
func WithoutFallbackRaster() Option {
	return func(p *Preparer) {
		p.config.Images.FallbackRaster = false
	}
}

// WithOnlyImages disables the video stage and the <video> pass.
func WithOnlyImages() Option {
	return func(p *Preparer) {
		p.config.Run.OnlyImages = true
	}
}

// WithOnlyVideos disables the image stage and the <picture> pass.
func WithOnlyVideos() Option {
	return func(p *Preparer) {
		p.config.Run.OnlyVideos = true
	}
}

// WithForceImages rebuilds every image variant regardless of timestamps.
func WithForceImages() Option {
	return func(p *Preparer) {
		p.config.Run.ForceImages = true
	}
}

// WithForceVideos rebuilds every poster and transcode regardless of timestamps.
func WithForceVideos() Option {
	return func(p *Preparer) {
		p.config.Run.ForceVideos = true
	}
}

// WithDryRun reports what would change without writing anything.
func WithDryRun() Option {
	return func(p *Preparer) {
		p.config.Run.DryRun = true
	}
}

// WithReporter sends run events to rep.
func WithReporter(rep Reporter) Option {
	return func(p *Preparer) {
		p.reporter = rep
	}
}

// WithLogDir writes a run log file into dir.
func WithLogDir(dir string) Option {
	return func(p *Preparer) {
		p.logDir = dir
	}
}

// Run performs one pass. A log file is written only when WithLogDir was given.
func (p *Preparer) Run(ctx context.Context) (Summary, error) {
	cfg := *p.config

	var logger *logging.Logger
	if p.logDir != "" {
		l, err := logging.Setup(p.logDir, cfg.Logging.Verbose, false)
		if err != nil {
			return Summary{}, err
		}
		defer l.Close()
		logger = l
	}

	runner := &processing.Runner{
		Config:   &cfg,
		Reporter: p.reporter,
		Logger:   logger,
	}
	return runner.Run(ctx)
}
