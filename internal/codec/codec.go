// Package codec is the boundary between planning and the encoders. Planners
// speak to an Adapter; FFmpegAdapter implements it with in-process raster
// encoding plus ffmpeg and ffprobe.
package codec

import (
	"context"

	"github.com/lostlessvisuals/localprep/internal/artifact"
	"github.com/lostlessvisuals/localprep/internal/ffmpeg"
)

// FailureReason classifies why a codec operation did not produce its output.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonUnsupportedFormat
	ReasonEncoderUnavailable
	ReasonEncodeFailed
	ReasonIO
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUnsupportedFormat:
		return "unsupported format"
	case ReasonEncoderUnavailable:
		return "encoder unavailable"
	case ReasonEncodeFailed:
		return "encode failed"
	case ReasonIO:
		return "i/o"
	default:
		return "unknown"
	}
}

// Result is the outcome of a codec operation. Err is nil exactly when Reason
// is ReasonNone.
type Result struct {
	Reason FailureReason
	Err    error
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Reason == ReasonNone }

func ok() Result { return Result{Reason: ReasonNone} }

func fail(reason FailureReason, err error) Result {
	return Result{Reason: reason, Err: err}
}

// ResizeRequest asks for one downscaled still.
type ResizeRequest struct {
	Source      string
	Destination string
	Width       int
	Format      artifact.Format
	Quality     int
}

// TranscodeParams configures a WebM transcode.
type TranscodeParams struct {
	CRF          uint8
	CPUUsed      uint8
	AudioBitrate string
	// Duration of the source in seconds, for progress percentages. 0 if unknown.
	Duration float64
}

// ProgressFunc receives transcode progress.
type ProgressFunc func(ffmpeg.Progress)

// Adapter performs all decoding and encoding.
type Adapter interface {
	// Resize writes req.Destination at most req.Width wide. It never upscales.
	Resize(ctx context.Context, req ResizeRequest) Result
	// ProbeDuration returns the duration in seconds, or 0 when it cannot be read.
	ProbeDuration(ctx context.Context, source string) float64
	// ExtractFrame writes the frame at atSeconds to destination as a JPEG.
	ExtractFrame(ctx context.Context, source, destination string, atSeconds float64) Result
	// Transcode writes an AV1/Opus WebM of source to destination.
	Transcode(ctx context.Context, source, destination string, params TranscodeParams, progress ProgressFunc) Result
	// NativeWidth returns the pixel width of an image source.
	NativeWidth(ctx context.Context, source string) (int, error)
}
