package ffmpeg

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/util"
)

// Binary is the ffmpeg executable looked up on PATH.
const Binary = "ffmpeg"

// Progress represents encoding progress information.
type Progress struct {
	CurrentFrame uint64
	Percent      float32
	Speed        float32
	FPS          float32
	ETA          time.Duration
	Bitrate      string
	ElapsedSecs  float64
}

// ProgressCallback is called with progress updates during encoding.
type ProgressCallback func(Progress)

// Result contains the result of an FFmpeg operation.
type Result struct {
	Success bool
	Error   error
	Stderr  string
	// EncoderUnavailable is set when ffmpeg was built without the requested encoder.
	EncoderUnavailable bool
}

var timeRegex = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}\.?\d*)`)

// stderr fragments ffmpeg prints when an encoder is not compiled in.
var encoderUnavailableMarkers = []string{
	"Unknown encoder",
	"Encoder not found",
	"Requested encoder",
	"Unrecognized option 'still-picture'",
}

// Run executes ffmpeg with args. duration enables percent and ETA in progress
// updates; pass 0 when unknown. callback may be nil.
func Run(ctx context.Context, args []string, duration float64, callback ProgressCallback) Result {
	cmd := exec.CommandContext(ctx, Binary, args...)

	// Get stderr for progress parsing
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{Error: errors.NewIOError("failed to get ffmpeg stderr pipe", err)}
	}

	if err := cmd.Start(); err != nil {
		return Result{Error: errors.NewCommandStartError(Binary, err)}
	}

	var stderrBuilder strings.Builder
	parseProgress(stderr, &stderrBuilder, duration, callback)

	err = cmd.Wait()
	stderrStr := stderrBuilder.String()

	if err != nil {
		if ctx.Err() != nil {
			return Result{Error: errors.NewCancelledError(), Stderr: stderrStr}
		}
		return Result{
			Error:              errors.WrapExecError(Binary, err, lastLines(stderrStr, 3)),
			Stderr:             stderrStr,
			EncoderUnavailable: IsEncoderUnavailable(stderrStr),
		}
	}

	return Result{Success: true, Stderr: stderrStr}
}

// IsEncoderUnavailable reports whether ffmpeg stderr says the encoder is missing.
func IsEncoderUnavailable(stderr string) bool {
	for _, marker := range encoderUnavailableMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

// CommandLine renders args for logs.
func CommandLine(args []string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, Binary)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " '\"()") {
			a = strconv.Quote(a)
		}
		quoted = append(quoted, a)
	}
	return strings.Join(quoted, " ")
}

func lastLines(s string, n int) string {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}

// parseProgress reads FFmpeg stderr and parses progress updates.
func parseProgress(stderr io.Reader, stderrBuilder *strings.Builder, duration float64, callback ProgressCallback) {
	reader := bufio.NewReader(stderr)
	var lineBuf strings.Builder

	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		stderrBuilder.WriteByte(b)

		// Progress lines end with \r or \n
		if b == '\r' || b == '\n' {
			line := lineBuf.String()
			lineBuf.Reset()

			if callback != nil && strings.Contains(line, "time=") {
				if progress := parseProgressLine(line, duration); progress != nil {
					callback(*progress)
				}
			}
		} else {
			lineBuf.WriteByte(b)
		}
	}
}

// fieldValue returns the whitespace-delimited value after key= in line.
func fieldValue(line, key string) string {
	idx := strings.Index(line, key+"=")
	if idx < 0 {
		return ""
	}
	remaining := strings.TrimLeft(line[idx+len(key)+1:], " ")
	if end := strings.IndexAny(remaining, " \t\r\n"); end >= 0 {
		remaining = remaining[:end]
	}
	return remaining
}

// parseProgressLine extracts progress information from an FFmpeg progress line.
func parseProgressLine(line string, duration float64) *Progress {
	var elapsedSecs float64
	if matches := timeRegex.FindStringSubmatch(line); len(matches) >= 2 {
		if secs, ok := util.ParseFFmpegTime(matches[1]); ok {
			elapsedSecs = secs
		}
	}

	p := &Progress{ElapsedSecs: elapsedSecs, Bitrate: fieldValue(line, "bitrate")}

	if f, err := strconv.ParseUint(fieldValue(line, "frame"), 10, 64); err == nil {
		p.CurrentFrame = f
	}
	if f, err := strconv.ParseFloat(fieldValue(line, "fps"), 32); err == nil {
		p.FPS = float32(f)
	}
	if s, err := strconv.ParseFloat(strings.TrimSuffix(fieldValue(line, "speed"), "x"), 32); err == nil {
		p.Speed = float32(s)
	}

	if duration > 0 {
		p.Percent = min(float32(elapsedSecs/duration*100), 100)
		if p.Speed > 0 {
			remaining := max(duration-elapsedSecs, 0)
			p.ETA = time.Duration(remaining/float64(p.Speed)) * time.Second
		}
	}

	return p
}
