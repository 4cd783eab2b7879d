package codec

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"

	"github.com/lostlessvisuals/localprep/internal/errors"
)

// NativeWidth implements Adapter. Headers Go can decode are read in process;
// anything else is probed with ffprobe.
func (a *FFmpegAdapter) NativeWidth(ctx context.Context, source string) (int, error) {
	f, err := os.Open(source)
	if err != nil {
		return 0, errors.NewUnreadableSourceError(source, err)
	}
	cfg, _, decodeErr := image.DecodeConfig(f)
	_ = f.Close()
	if decodeErr == nil && cfg.Width > 0 {
		return cfg.Width, nil
	}

	dims, err := a.dimensions(ctx, source)
	if err != nil {
		if errors.IsCancelled(err) {
			return 0, err
		}
		return 0, errors.NewUnreadableSourceError(source, err)
	}
	return dims.Width, nil
}
