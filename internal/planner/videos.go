package planner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lostlessvisuals/localprep/internal/artifact"
	"github.com/lostlessvisuals/localprep/internal/codec"
	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/ffmpeg"
	"github.com/lostlessvisuals/localprep/internal/freshness"
	"github.com/lostlessvisuals/localprep/internal/logging"
	"github.com/lostlessvisuals/localprep/internal/reporter"
	"github.com/lostlessvisuals/localprep/internal/util"
)

// VideoOptions configures the video planner.
type VideoOptions struct {
	CRF              uint8
	CPUUsed          uint8
	AudioBitrate     string
	PosterFraction   float64
	MinPosterSeconds float64
	DryRun           bool
}

// VideoPlanner builds posters and WebM transcodes for video sources.
type VideoPlanner struct {
	adapter  codec.Adapter
	oracle   freshness.Oracle
	reporter reporter.Reporter
	logger   *logging.Logger
	opts     VideoOptions
}

// NewVideoPlanner creates a video planner.
func NewVideoPlanner(adapter codec.Adapter, oracle freshness.Oracle, rep reporter.Reporter, logger *logging.Logger, opts VideoOptions) *VideoPlanner {
	return &VideoPlanner{
		adapter:  adapter,
		oracle:   oracle,
		reporter: nullReporter(rep),
		logger:   logger,
		opts:     opts,
	}
}

// PosterTime returns the capture offset for a poster: fraction of duration,
// never earlier than minSeconds. A zero or negative duration means the probe
// failed and yields minSeconds.
func PosterTime(duration, fraction, minSeconds float64) float64 {
	if duration <= 0 {
		return minSeconds
	}
	return max(minSeconds, duration*fraction)
}

// Plan processes sources in order. Poster and transcode are checked and
// rebuilt independently.
func (p *VideoPlanner) Plan(ctx context.Context, sources []string) (Outcome, error) {
	out := Outcome{Sources: len(sources)}
	p.reporter.StageStarted(reporter.StageInfo{Stage: reporter.StageVideos, Total: len(sources)})

	for i, src := range sources {
		if ctx.Err() != nil {
			return out, errors.NewCancelledError()
		}
		p.reporter.AssetStarted(reporter.AssetContext{Stage: reporter.StageVideos, Index: i + 1, Total: len(sources), Source: src})

		set := artifact.VideoSet(src)
		stale, err := p.oracle.IsStale(src, set.Paths())
		if err != nil {
			return out, err
		}
		if !stale {
			out.UpToDate++
			p.reporter.AssetSkipped(reporter.AssetSkip{Source: src, Reason: ReasonUpToDate})
			p.logger.Debug("video up to date", "source", src)
			continue
		}
		out.Touched++

		poster, _ := set.Get(artifact.RolePoster)
		transcode, _ := set.Get(artifact.RoleTranscode)
		posterFresh, err := p.oracle.IsFresh(src, poster.Path)
		if err != nil {
			return out, err
		}
		transcodeFresh, err := p.oracle.IsFresh(src, transcode.Path)
		if err != nil {
			return out, err
		}

		if p.opts.DryRun {
			p.planDry(src, poster, transcode, posterFresh, transcodeFresh, &out)
			continue
		}

		duration := p.adapter.ProbeDuration(ctx, src)
		if ctx.Err() != nil {
			return out, errors.NewCancelledError()
		}
		if duration <= 0 {
			p.logger.Warn("duration unknown, capturing poster at minimum offset", "source", src)
		}

		if !posterFresh {
			if err := p.extractPoster(ctx, src, poster, duration, &out); err != nil {
				return out, err
			}
		}
		if !transcodeFresh {
			if err := p.transcode(ctx, src, transcode, duration, &out); err != nil {
				return out, err
			}
		}
	}

	return out, nil
}

func (p *VideoPlanner) planDry(src string, poster, transcode artifact.Entry, posterFresh, transcodeFresh bool, out *Outcome) {
	if !posterFresh {
		p.reporter.ArtifactPlanned(reporter.ArtifactEvent{
			Source: src,
			Path:   poster.Path,
			Role:   string(poster.Role),
			DryRun: true,
			Detail: fmt.Sprintf("at max(%ss, %g%% of duration)", util.FormatSeconds(p.opts.MinPosterSeconds), p.opts.PosterFraction*100),
		})
		out.Artifacts++
	}
	if !transcodeFresh {
		p.reporter.ArtifactPlanned(reporter.ArtifactEvent{
			Source: src,
			Path:   transcode.Path,
			Role:   string(transcode.Role),
			DryRun: true,
			Detail: "from " + filepath.Base(src),
		})
		out.Artifacts++
	}
	p.logger.Info("would rebuild video artifacts", "source", src, "poster", !posterFresh, "transcode", !transcodeFresh)
}

func (p *VideoPlanner) extractPoster(ctx context.Context, src string, poster artifact.Entry, duration float64, out *Outcome) error {
	at := PosterTime(duration, p.opts.PosterFraction, p.opts.MinPosterSeconds)
	res := p.adapter.ExtractFrame(ctx, src, poster.Path, at)
	if !res.OK() {
		p.logger.Error("poster extraction failed", "source", src, "reason", res.Reason.String(), "error", res.Err)
		return resultError(ctx, res, fmt.Sprintf("failed to extract poster %s", filepath.Base(poster.Path)))
	}

	size := fileSize(poster.Path)
	out.Artifacts++
	out.BytesWritten += size
	p.reporter.ArtifactWritten(reporter.ArtifactEvent{
		Source: src,
		Path:   poster.Path,
		Role:   string(poster.Role),
		Size:   size,
		Detail: "@ " + util.FormatSeconds(at) + "s",
	})
	p.logger.Info("wrote poster", "source", src, "path", poster.Path, "at_seconds", at)
	return nil
}

func (p *VideoPlanner) transcode(ctx context.Context, src string, transcode artifact.Entry, duration float64, out *Outcome) error {
	p.reporter.EncodingStarted(reporter.EncodingInfo{Source: src, Destination: transcode.Path, Duration: duration})
	res := p.adapter.Transcode(ctx, src, transcode.Path, codec.TranscodeParams{
		CRF:          p.opts.CRF,
		CPUUsed:      p.opts.CPUUsed,
		AudioBitrate: p.opts.AudioBitrate,
		Duration:     duration,
	}, func(progress ffmpeg.Progress) {
		p.reporter.EncodingProgress(reporter.ProgressSnapshot{
			CurrentFrame: progress.CurrentFrame,
			Percent:      progress.Percent,
			Speed:        progress.Speed,
			FPS:          progress.FPS,
			ETA:          progress.ETA,
			Bitrate:      progress.Bitrate,
		})
	})
	p.reporter.EncodingFinished()
	if !res.OK() {
		p.logger.Error("transcode failed", "source", src, "reason", res.Reason.String(), "error", res.Err)
		return resultError(ctx, res, fmt.Sprintf("failed to encode %s", filepath.Base(transcode.Path)))
	}

	size := fileSize(transcode.Path)
	out.Artifacts++
	out.BytesWritten += size
	p.reporter.ArtifactWritten(reporter.ArtifactEvent{
		Source: src,
		Path:   transcode.Path,
		Role:   string(transcode.Role),
		Size:   size,
	})
	p.logger.Info("wrote transcode", "source", src, "path", transcode.Path, "bytes", size)
	return nil
}
