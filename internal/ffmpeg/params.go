// Package ffmpeg builds and runs the ffmpeg and ffprobe invocations behind
// every still, poster, and transcode.
package ffmpeg

import (
	"fmt"
	"strings"
)

// SvtParams is an ordered set of -svtav1-params entries.
type SvtParams [][2]string

// StillSvtParams puts SVT-AV1 into still-picture mode with visual-quality
// tuning.
func StillSvtParams() SvtParams {
	return SvtParams{{"avif", "1"}, {"tune", "0"}}
}

func (p SvtParams) String() string {
	parts := make([]string, len(p))
	for i, kv := range p {
		parts[i] = fmt.Sprintf("%s=%s", kv[0], kv[1])
	}
	return strings.Join(parts, ":")
}
