package ffmpeg

import "fmt"

// ScaleFilter downsizes to maxWidth with lanczos, keeping the aspect ratio
// and an even height. Narrower inputs pass through at native size. A
// non-positive width yields no filter.
func ScaleFilter(maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return fmt.Sprintf("scale='min(%d,iw)':-2:flags=lanczos", maxWidth)
}
