package ffmpeg

import (
	"slices"
	"strings"
	"testing"
)

func indexOf(args []string, flag string) int {
	return slices.Index(args, flag)
}

func valueOf(t *testing.T, args []string, flag string) string {
	t.Helper()
	i := indexOf(args, flag)
	if i < 0 || i+1 >= len(args) {
		t.Fatalf("flag %s not found in %v", flag, args)
	}
	return args[i+1]
}

func TestBuildWebPCommand(t *testing.T) {
	args := BuildWebPCommand(StillParams{Input: "in.jpg", Output: "out-480.webp", MaxWidth: 480, Quality: 82})

	if got := valueOf(t, args, "-c:v"); got != EncoderWebP {
		t.Errorf("-c:v = %s", got)
	}
	if got := valueOf(t, args, "-quality"); got != "82" {
		t.Errorf("-quality = %s", got)
	}
	if got := valueOf(t, args, "-compression_level"); got != "6" {
		t.Errorf("-compression_level = %s", got)
	}
	if got := valueOf(t, args, "-vf"); got != "scale='min(480,iw)':-2:flags=lanczos" {
		t.Errorf("-vf = %s", got)
	}
	if args[len(args)-1] != "out-480.webp" {
		t.Errorf("output must be last, got %v", args)
	}
	if !slices.Contains(args, "-y") || !slices.Contains(args, "-nostdin") {
		t.Error("expected non-interactive overwrite flags")
	}
}

func TestBuildAVIFCommand(t *testing.T) {
	args := BuildAVIFCommand(StillParams{Input: "in.png", Output: "out.avif", MaxWidth: 800, CRF: 28, CPUUsed: 6})

	checks := map[string]string{
		"-c:v":           EncoderAOM,
		"-still-picture": "1",
		"-crf":           "28",
		"-b:v":           "0",
		"-cpu-used":      "6",
		"-pix_fmt":       "yuv420p10le",
		"-frames:v":      "1",
	}
	for flag, want := range checks {
		if got := valueOf(t, args, flag); got != want {
			t.Errorf("%s = %s, want %s", flag, got, want)
		}
	}
}

func TestBuildSvtAVIFCommand(t *testing.T) {
	args := BuildSvtAVIFCommand(StillParams{Input: "in.png", Output: "out.avif", MaxWidth: 800, CRF: 28, Preset: 8})

	if got := valueOf(t, args, "-c:v"); got != EncoderSVTAV1 {
		t.Errorf("-c:v = %s", got)
	}
	if got := valueOf(t, args, "-preset"); got != "8" {
		t.Errorf("-preset = %s", got)
	}
	if got := valueOf(t, args, "-svtav1-params"); !strings.Contains(got, "avif=1") {
		t.Errorf("-svtav1-params = %s", got)
	}
}

func TestBuildPosterCommand(t *testing.T) {
	args := BuildPosterCommand(PosterParams{Input: "video1.mp4", Output: "video1.jpg", AtSeconds: 1, Quality: 2})

	ss := indexOf(args, "-ss")
	in := indexOf(args, "-i")
	if ss < 0 || ss > in {
		t.Errorf("-ss must precede -i: %v", args)
	}
	if got := args[ss+1]; got != "1.000" {
		t.Errorf("-ss = %s, want 1.000", got)
	}
	if got := valueOf(t, args, "-q:v"); got != "2" {
		t.Errorf("-q:v = %s", got)
	}
	if got := valueOf(t, args, "-frames:v"); got != "1" {
		t.Errorf("-frames:v = %s", got)
	}
}

func TestBuildTranscodeCommand(t *testing.T) {
	args := BuildTranscodeCommand(TranscodeParams{Input: "video1.mp4", Output: "video1.webm", CRF: 30, CPUUsed: 4, AudioBitrate: "128k"})

	checks := map[string]string{
		"-c:v":          EncoderAOM,
		"-crf":          "30",
		"-b:v":          "0",
		"-cpu-used":     "4",
		"-row-mt":       "1",
		"-c:a":          EncoderOpus,
		"-b:a":          "128k",
		"-map_metadata": "-1",
	}
	for flag, want := range checks {
		if got := valueOf(t, args, flag); got != want {
			t.Errorf("%s = %s, want %s", flag, got, want)
		}
	}
	if indexOf(args, "-vf") >= 0 {
		t.Error("transcode must not scale")
	}
}

func TestCommandLine(t *testing.T) {
	got := CommandLine([]string{"-i", "my file.mp4", "-vf", "scale='min(480,iw)':-2"})
	if !strings.HasPrefix(got, "ffmpeg -i ") {
		t.Errorf("CommandLine() = %s", got)
	}
	if !strings.Contains(got, `"my file.mp4"`) {
		t.Errorf("expected quoted path, got %s", got)
	}
}

func TestBuildRasterCommand(t *testing.T) {
	jpeg := BuildRasterCommand(StillParams{Input: "hero.avif", Output: "hero-480.jpg", MaxWidth: 480}, true)
	if got := valueOf(t, jpeg, "-q:v"); got != "2" {
		t.Errorf("-q:v = %s", got)
	}

	png := BuildRasterCommand(StillParams{Input: "hero.avif", Output: "hero-480.png", MaxWidth: 480}, false)
	if indexOf(png, "-q:v") >= 0 {
		t.Error("PNG output should not set -q:v")
	}
	if got := valueOf(t, png, "-vf"); got != "scale='min(480,iw)':-2:flags=lanczos" {
		t.Errorf("-vf = %s", got)
	}
}
