package codec

import (
	"context"
	stderrors "errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/lostlessvisuals/localprep/internal/artifact"
	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/ffmpeg"
	"github.com/lostlessvisuals/localprep/internal/util"
)

// resizeRaster encodes JPEG and PNG fallbacks in process. Sources without a
// registered Go decoder (AVIF) go through ffmpeg instead.
func (a *FFmpegAdapter) resizeRaster(ctx context.Context, req ResizeRequest) Result {
	if err := ctx.Err(); err != nil {
		return fail(ReasonEncodeFailed, errors.NewCancelledError())
	}

	img, err := imaging.Open(req.Source, imaging.AutoOrientation(true))
	if err != nil {
		if stderrors.Is(err, image.ErrFormat) {
			return a.encode(ctx, req.Destination, 0, nil, func(tmp string) []string {
				return ffmpeg.BuildRasterCommand(ffmpeg.StillParams{
					Input:    req.Source,
					Output:   tmp,
					MaxWidth: req.Width,
				}, req.Format == artifact.FormatJPEG)
			})
		}
		return fail(ReasonIO, errors.NewUnreadableSourceError(req.Source, err))
	}

	if img.Bounds().Dx() > req.Width {
		img = imaging.Resize(img, req.Width, 0, imaging.Lanczos)
	}

	var opts []imaging.EncodeOption
	switch req.Format {
	case artifact.FormatJPEG:
		opts = append(opts, imaging.JPEGQuality(req.Quality))
	case artifact.FormatPNG:
		opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
	}

	ext := strings.TrimPrefix(filepath.Ext(req.Destination), ".")
	tmp, err := util.CreateTempFilePath(filepath.Dir(req.Destination), util.TempPrefix, ext)
	if err != nil {
		return fail(ReasonIO, errors.NewIOError("failed to allocate temporary output", err))
	}

	a.Logger.Debug("encoding in process", "source", req.Source, "destination", req.Destination, "width", req.Width)
	if err := imaging.Save(img, tmp, opts...); err != nil {
		_ = os.Remove(tmp)
		return fail(ReasonIO, errors.NewIOError("failed to write "+req.Destination, err))
	}
	if err := os.Rename(tmp, req.Destination); err != nil {
		_ = os.Remove(tmp)
		return fail(ReasonIO, errors.NewIOError("failed to move encoded output into place", err))
	}
	return ok()
}
