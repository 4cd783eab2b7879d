package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/lostlessvisuals/localprep/internal/artifact"
	"github.com/lostlessvisuals/localprep/internal/codec"
	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/freshness"
	"github.com/lostlessvisuals/localprep/internal/logging"
	"github.com/lostlessvisuals/localprep/internal/reporter"
)

// ImageOptions configures the image planner.
type ImageOptions struct {
	Widths         []int
	FallbackRaster bool
	Quality        int
	DryRun         bool
}

// ImagePlanner builds responsive variants for image sources.
type ImagePlanner struct {
	adapter  codec.Adapter
	oracle   freshness.Oracle
	reporter reporter.Reporter
	logger   *logging.Logger
	opts     ImageOptions
}

// NewImagePlanner creates an image planner. Widths are used in ascending order.
func NewImagePlanner(adapter codec.Adapter, oracle freshness.Oracle, rep reporter.Reporter, logger *logging.Logger, opts ImageOptions) *ImagePlanner {
	opts.Widths = slices.Clone(opts.Widths)
	slices.Sort(opts.Widths)
	return &ImagePlanner{
		adapter:  adapter,
		oracle:   oracle,
		reporter: nullReporter(rep),
		logger:   logger,
		opts:     opts,
	}
}

// Plan processes sources in order. Unreadable sources are reported and
// skipped; any other failure aborts and is returned.
func (p *ImagePlanner) Plan(ctx context.Context, sources []string) (Outcome, error) {
	out := Outcome{Sources: len(sources)}
	p.reporter.StageStarted(reporter.StageInfo{Stage: reporter.StageImages, Total: len(sources)})

	for i, src := range sources {
		if ctx.Err() != nil {
			return out, errors.NewCancelledError()
		}

		asset := reporter.AssetContext{Stage: reporter.StageImages, Index: i + 1, Total: len(sources), Source: src}
		native, err := p.adapter.NativeWidth(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return out, errors.NewCancelledError()
			}
			p.reporter.AssetStarted(asset)
			p.reporter.Warning(fmt.Sprintf("Skipping unreadable image: %s", filepath.Base(src)))
			p.reporter.AssetSkipped(reporter.AssetSkip{Source: src, Reason: ReasonUnreadable})
			p.logger.Warn("skipping unreadable image", "source", src, "error", err)
			out.Unreadable++
			continue
		}
		asset.Summary = fmt.Sprintf("%dpx wide", native)
		p.reporter.AssetStarted(asset)

		didAny := false
		for _, width := range p.opts.Widths {
			if width > native {
				p.logger.Debug("width exceeds source, not upscaling", "source", src, "width", width, "native", native)
				continue
			}

			set := artifact.ImageSet(src, width, p.opts.FallbackRaster)
			stale, err := p.oracle.IsStale(src, set.Paths())
			if err != nil {
				return out, err
			}
			if !stale {
				continue
			}
			didAny = true

			for _, entry := range set.Entries {
				if err := p.build(ctx, src, entry, &out); err != nil {
					return out, err
				}
			}
		}

		if didAny {
			out.Touched++
		} else {
			out.UpToDate++
			p.reporter.AssetSkipped(reporter.AssetSkip{Source: src, Reason: ReasonUpToDate})
			p.logger.Debug("image up to date", "source", src)
		}
	}

	return out, nil
}

func (p *ImagePlanner) build(ctx context.Context, src string, entry artifact.Entry, out *Outcome) error {
	event := reporter.ArtifactEvent{
		Source: src,
		Path:   entry.Path,
		Role:   string(entry.Role),
		Width:  entry.Width,
		DryRun: p.opts.DryRun,
	}

	if p.opts.DryRun {
		p.reporter.ArtifactPlanned(event)
		p.logger.Info("would write artifact", "source", src, "path", entry.Path)
		out.Artifacts++
		return nil
	}

	res := p.adapter.Resize(ctx, codec.ResizeRequest{
		Source:      src,
		Destination: entry.Path,
		Width:       entry.Width,
		Format:      entry.Format,
		Quality:     p.opts.Quality,
	})
	if !res.OK() {
		p.logger.Error("resize failed", "source", src, "destination", entry.Path, "reason", res.Reason.String(), "error", res.Err)
		return resultError(ctx, res, fmt.Sprintf("failed to write %s", filepath.Base(entry.Path)))
	}

	event.Size = fileSize(entry.Path)
	out.Artifacts++
	out.BytesWritten += event.Size
	p.reporter.ArtifactWritten(event)
	p.logger.Info("wrote artifact", "source", src, "path", entry.Path, "bytes", event.Size)
	return nil
}
