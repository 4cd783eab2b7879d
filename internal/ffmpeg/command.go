package ffmpeg

import (
	"strconv"

	"github.com/lostlessvisuals/localprep/internal/util"
)

// Encoder names used by localprep.
const (
	EncoderWebP    = "libwebp"
	EncoderAOM     = "libaom-av1"
	EncoderSVTAV1  = "libsvtav1"
	EncoderOpus    = "libopus"
	StillPixFormat = "yuv420p10le"
)

// StillParams describes a single-frame image encode.
type StillParams struct {
	Input    string
	Output   string
	MaxWidth int
	Quality  int   // libwebp quality
	CRF      uint8 // AV1 encoders
	CPUUsed  uint8 // libaom
	Preset   uint8 // SVT-AV1
}

// TranscodeParams describes a full AV1/Opus WebM transcode.
type TranscodeParams struct {
	Input        string
	Output       string
	CRF          uint8
	CPUUsed      uint8
	AudioBitrate string
}

// PosterParams describes a single frame extraction to JPEG.
type PosterParams struct {
	Input     string
	Output    string
	AtSeconds float64
	Quality   int
}

// Command accumulates ffmpeg arguments.
type Command struct {
	pre    []string
	input  string
	args   []string
	output string
}

// NewCommand starts a non-interactive, overwrite-enabled ffmpeg command.
func NewCommand(input, output string) *Command {
	return &Command{
		pre:    []string{"-hide_banner", "-nostdin", "-y"},
		input:  input,
		output: output,
	}
}

// Seek places -ss before the input for fast seeking.
func (c *Command) Seek(seconds float64) *Command {
	c.pre = append(c.pre, "-ss", util.FormatSeconds(seconds))
	return c
}

// Scale limits the output width; see ScaleFilter.
func (c *Command) Scale(maxWidth int) *Command {
	if vf := ScaleFilter(maxWidth); vf != "" {
		c.args = append(c.args, "-vf", vf)
	}
	return c
}

// Arg appends raw output options.
func (c *Command) Arg(args ...string) *Command {
	c.args = append(c.args, args...)
	return c
}

// SingleFrame limits output to one video frame.
func (c *Command) SingleFrame() *Command {
	return c.Arg("-frames:v", "1")
}

// Args returns the complete argument list, excluding the binary name.
func (c *Command) Args() []string {
	out := append([]string{}, c.pre...)
	out = append(out, "-i", c.input)
	out = append(out, c.args...)
	return append(out, c.output)
}

// BuildWebPCommand encodes a downscaled WebP still.
func BuildWebPCommand(p StillParams) []string {
	return NewCommand(p.Input, p.Output).
		Scale(p.MaxWidth).
		SingleFrame().
		Arg("-c:v", EncoderWebP, "-quality", strconv.Itoa(p.Quality), "-compression_level", "6").
		Args()
}

// BuildAVIFCommand encodes a downscaled AVIF still with libaom.
func BuildAVIFCommand(p StillParams) []string {
	return NewCommand(p.Input, p.Output).
		Scale(p.MaxWidth).
		SingleFrame().
		Arg("-c:v", EncoderAOM,
			"-still-picture", "1",
			"-crf", strconv.Itoa(int(p.CRF)),
			"-b:v", "0",
			"-cpu-used", strconv.Itoa(int(p.CPUUsed)),
			"-pix_fmt", StillPixFormat).
		Args()
}

// BuildSvtAVIFCommand encodes a downscaled AVIF still with SVT-AV1, used when
// libaom is not compiled into ffmpeg.
func BuildSvtAVIFCommand(p StillParams) []string {
	return NewCommand(p.Input, p.Output).
		Scale(p.MaxWidth).
		SingleFrame().
		Arg("-c:v", EncoderSVTAV1,
			"-preset", strconv.Itoa(int(p.Preset)),
			"-crf", strconv.Itoa(int(p.CRF)),
			"-svtav1-params", StillSvtParams().String(),
			"-pix_fmt", StillPixFormat).
		Args()
}

// BuildPosterCommand grabs one frame at p.AtSeconds as a JPEG.
func BuildPosterCommand(p PosterParams) []string {
	return NewCommand(p.Input, p.Output).
		Seek(p.AtSeconds).
		SingleFrame().
		Arg("-q:v", strconv.Itoa(p.Quality)).
		Args()
}

// BuildTranscodeCommand builds the AV1/Opus WebM transcode.
func BuildTranscodeCommand(p TranscodeParams) []string {
	return NewCommand(p.Input, p.Output).
		Arg("-c:v", EncoderAOM,
			"-crf", strconv.Itoa(int(p.CRF)),
			"-b:v", "0",
			"-cpu-used", strconv.Itoa(int(p.CPUUsed)),
			"-row-mt", "1",
			"-c:a", EncoderOpus,
			"-b:a", p.AudioBitrate,
			"-map_metadata", "-1").
		Args()
}

// BuildRasterCommand writes a downscaled JPEG or PNG still through ffmpeg, for
// sources Go cannot decode in process.
func BuildRasterCommand(p StillParams, jpeg bool) []string {
	cmd := NewCommand(p.Input, p.Output).
		Scale(p.MaxWidth).
		SingleFrame()
	if jpeg {
		cmd.Arg("-q:v", "2")
	}
	return cmd.Args()
}
