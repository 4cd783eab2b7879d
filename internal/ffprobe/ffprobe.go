// Package ffprobe provides functions for extracting media information using ffprobe.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/lostlessvisuals/localprep/internal/errors"
)

// Binary is the ffprobe executable looked up on PATH.
const Binary = "ffprobe"

// Dimensions is the frame size of the first video stream.
type Dimensions struct {
	Width  int
	Height int
}

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

// runFFprobe executes ffprobe and returns the parsed output.
func runFFprobe(ctx context.Context, inputPath string) (*ffprobeOutput, error) {
	cmd := exec.CommandContext(ctx, Binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError()
		}
		return nil, errors.WrapExecError(Binary, err, stderr.String())
	}

	return parseFFprobeOutput(output)
}

func parseFFprobeOutput(data []byte) (*ffprobeOutput, error) {
	var result ffprobeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.NewFFprobeParseError(fmt.Sprintf("failed to parse ffprobe output: %v", err))
	}
	return &result, nil
}

// GetDuration returns the container duration of inputPath in seconds.
func GetDuration(ctx context.Context, inputPath string) (float64, error) {
	probe, err := runFFprobe(ctx, inputPath)
	if err != nil {
		return 0, err
	}
	return extractDuration(probe)
}

// GetDimensions returns the frame size of the first video stream of inputPath.
// Still images report as a single-frame video stream.
func GetDimensions(ctx context.Context, inputPath string) (Dimensions, error) {
	probe, err := runFFprobe(ctx, inputPath)
	if err != nil {
		return Dimensions{}, err
	}
	return extractDimensions(probe, inputPath)
}

// extractDuration prefers the container duration and falls back to the
// first stream that reports one.
func extractDuration(probe *ffprobeOutput) (float64, error) {
	candidates := []string{probe.Format.Duration}
	for _, s := range probe.Streams {
		candidates = append(candidates, s.Duration)
	}
	for _, c := range candidates {
		if c == "" || c == "N/A" {
			continue
		}
		d, err := strconv.ParseFloat(c, 64)
		if err == nil && d > 0 {
			return d, nil
		}
	}
	return 0, errors.NewFFprobeParseError("no duration reported")
}

func extractDimensions(probe *ffprobeOutput, inputPath string) (Dimensions, error) {
	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		if s.Width <= 0 || s.Height <= 0 {
			return Dimensions{}, errors.NewFFprobeParseError(fmt.Sprintf("invalid dimensions in %s: %dx%d", inputPath, s.Width, s.Height))
		}
		return Dimensions{Width: s.Width, Height: s.Height}, nil
	}
	return Dimensions{}, errors.NewFFprobeParseError(fmt.Sprintf("no video stream found in %s", inputPath))
}
