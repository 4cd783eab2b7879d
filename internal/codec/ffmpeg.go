package codec

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/lostlessvisuals/localprep/internal/artifact"
	"github.com/lostlessvisuals/localprep/internal/config"
	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/ffmpeg"
	"github.com/lostlessvisuals/localprep/internal/ffprobe"
	"github.com/lostlessvisuals/localprep/internal/logging"
	"github.com/lostlessvisuals/localprep/internal/util"
)

// runFunc matches ffmpeg.Run.
type runFunc func(ctx context.Context, args []string, duration float64, callback ffmpeg.ProgressCallback) ffmpeg.Result

// probeFunc matches ffprobe.GetDuration.
type probeFunc func(ctx context.Context, path string) (float64, error)

// dimensionsFunc matches ffprobe.GetDimensions.
type dimensionsFunc func(ctx context.Context, path string) (ffprobe.Dimensions, error)

// FFmpegAdapter encodes JPEG and PNG in process and everything else through ffmpeg.
type FFmpegAdapter struct {
	AVIFCRF       uint8
	AVIFCPUUsed   uint8
	AVIFSVTPreset uint8
	PosterQuality int
	Logger        *logging.Logger

	run        runFunc
	probe      probeFunc
	dimensions dimensionsFunc
}

// NewFFmpegAdapter creates an adapter using the encoder settings in cfg.
func NewFFmpegAdapter(cfg *config.Config, logger *logging.Logger) *FFmpegAdapter {
	return &FFmpegAdapter{
		AVIFCRF:       cfg.Images.AVIFCRF,
		AVIFCPUUsed:   cfg.Images.AVIFCPUUsed,
		AVIFSVTPreset: cfg.Images.AVIFSVTPreset,
		PosterQuality: cfg.Videos.PosterQuality,
		Logger:        logger,
		run:           ffmpeg.Run,
		probe:         ffprobe.GetDuration,
		dimensions:    ffprobe.GetDimensions,
	}
}

// Resize implements Adapter.
func (a *FFmpegAdapter) Resize(ctx context.Context, req ResizeRequest) Result {
	still := ffmpeg.StillParams{
		Input:    req.Source,
		MaxWidth: req.Width,
		Quality:  req.Quality,
		CRF:      a.AVIFCRF,
		CPUUsed:  a.AVIFCPUUsed,
		Preset:   a.AVIFSVTPreset,
	}

	switch req.Format {
	case artifact.FormatWebP:
		return a.encode(ctx, req.Destination, 0, nil, func(tmp string) []string {
			still.Output = tmp
			return ffmpeg.BuildWebPCommand(still)
		})
	case artifact.FormatAVIF:
		res := a.encode(ctx, req.Destination, 0, nil, func(tmp string) []string {
			still.Output = tmp
			return ffmpeg.BuildAVIFCommand(still)
		})
		if res.Reason != ReasonEncoderUnavailable {
			return res
		}
		a.Logger.Warn("libaom-av1 unavailable, retrying AVIF with libsvtav1", "source", req.Source)
		res = a.encode(ctx, req.Destination, 0, nil, func(tmp string) []string {
			still.Output = tmp
			return ffmpeg.BuildSvtAVIFCommand(still)
		})
		if res.Reason == ReasonEncoderUnavailable {
			// Neither AV1 encoder exists; the batch cannot produce AVIF at all.
			res.Reason = ReasonEncodeFailed
		}
		return res
	case artifact.FormatJPEG, artifact.FormatPNG:
		return a.resizeRaster(ctx, req)
	default:
		return fail(ReasonUnsupportedFormat, errors.NewUnsupportedFormatError(string(req.Format)))
	}
}

// ProbeDuration implements Adapter.
func (a *FFmpegAdapter) ProbeDuration(ctx context.Context, source string) float64 {
	d, err := a.probe(ctx, source)
	if err != nil {
		a.Logger.Warn("duration probe failed", "source", source, "error", err)
		return 0
	}
	return d
}

// ExtractFrame implements Adapter.
func (a *FFmpegAdapter) ExtractFrame(ctx context.Context, source, destination string, atSeconds float64) Result {
	return a.encode(ctx, destination, 0, nil, func(tmp string) []string {
		return ffmpeg.BuildPosterCommand(ffmpeg.PosterParams{
			Input:     source,
			Output:    tmp,
			AtSeconds: atSeconds,
			Quality:   a.PosterQuality,
		})
	})
}

// Transcode implements Adapter.
func (a *FFmpegAdapter) Transcode(ctx context.Context, source, destination string, params TranscodeParams, progress ProgressFunc) Result {
	var cb ffmpeg.ProgressCallback
	if progress != nil {
		cb = func(p ffmpeg.Progress) { progress(p) }
	}
	return a.encode(ctx, destination, params.Duration, cb, func(tmp string) []string {
		return ffmpeg.BuildTranscodeCommand(ffmpeg.TranscodeParams{
			Input:        source,
			Output:       tmp,
			CRF:          params.CRF,
			CPUUsed:      params.CPUUsed,
			AudioBitrate: params.AudioBitrate,
		})
	})
}

// encode runs an ffmpeg command that writes to a hidden temporary file beside
// destination and renames it into place on success, so an interrupted encode
// never leaves a file that looks fresh.
func (a *FFmpegAdapter) encode(ctx context.Context, destination string, duration float64, cb ffmpeg.ProgressCallback, build func(tmp string) []string) Result {
	ext := strings.TrimPrefix(filepath.Ext(destination), ".")
	tmp, err := util.CreateTempFilePath(filepath.Dir(destination), util.TempPrefix, ext)
	if err != nil {
		return fail(ReasonIO, errors.NewIOError("failed to allocate temporary output", err))
	}

	args := build(tmp)
	a.Logger.Debug("running ffmpeg", "command", ffmpeg.CommandLine(args))

	res := a.run(ctx, args, duration, cb)
	if !res.Success {
		_ = os.Remove(tmp)
		a.Logger.Debug("ffmpeg failed", "destination", destination, "stderr", res.Stderr)
		if res.EncoderUnavailable {
			return fail(ReasonEncoderUnavailable, res.Error)
		}
		return fail(ReasonEncodeFailed, res.Error)
	}

	if err := os.Rename(tmp, destination); err != nil {
		_ = os.Remove(tmp)
		return fail(ReasonIO, errors.NewIOError("failed to move encoded output into place", err))
	}
	return ok()
}
