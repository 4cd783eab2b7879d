package codec

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/lostlessvisuals/localprep/internal/artifact"
	"github.com/lostlessvisuals/localprep/internal/config"
	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/ffmpeg"
	"github.com/lostlessvisuals/localprep/internal/ffprobe"
)

// fakeRunner stands in for ffmpeg: it records arguments and writes the
// output file unless told to fail.
type fakeRunner struct {
	calls       [][]string
	unavailable []string
	fail        bool
}

func (f *fakeRunner) run(_ context.Context, args []string, _ float64, cb ffmpeg.ProgressCallback) ffmpeg.Result {
	f.calls = append(f.calls, args)
	for _, enc := range f.unavailable {
		if slices.Contains(args, enc) {
			return ffmpeg.Result{
				Error:              errors.NewCommandFailedError("ffmpeg", 1, "Unknown encoder '"+enc+"'"),
				EncoderUnavailable: true,
			}
		}
	}
	if f.fail {
		return ffmpeg.Result{Error: errors.NewCommandFailedError("ffmpeg", 1, "Invalid data")}
	}
	if cb != nil {
		cb(ffmpeg.Progress{Percent: 50})
		cb(ffmpeg.Progress{Percent: 100})
	}
	if err := os.WriteFile(args[len(args)-1], []byte("encoded"), 0644); err != nil {
		return ffmpeg.Result{Error: err}
	}
	return ffmpeg.Result{Success: true}
}

func newTestAdapter(r *fakeRunner) *FFmpegAdapter {
	a := NewFFmpegAdapter(config.NewConfig(), nil)
	a.run = r.run
	a.probe = func(context.Context, string) (float64, error) { return 0, fmt.Errorf("no ffprobe in tests") }
	a.dimensions = func(context.Context, string) (ffprobe.Dimensions, error) {
		return ffprobe.Dimensions{}, fmt.Errorf("no ffprobe in tests")
	}
	return a
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}
}

func decodedWidth(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return cfg.Width
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".localprep_") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestFailureReasonString(t *testing.T) {
	tests := []struct {
		reason FailureReason
		want   string
	}{
		{ReasonNone, "none"},
		{ReasonUnsupportedFormat, "unsupported format"},
		{ReasonEncoderUnavailable, "encoder unavailable"},
		{ReasonEncodeFailed, "encode failed"},
		{ReasonIO, "i/o"},
		{FailureReason(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.reason.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestResizeWebP(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	a := newTestAdapter(runner)
	dst := filepath.Join(dir, "photo-480.webp")

	res := a.Resize(context.Background(), ResizeRequest{Source: filepath.Join(dir, "photo.jpg"), Destination: dst, Width: 480, Format: artifact.FormatWebP, Quality: 82})
	if !res.OK() {
		t.Fatalf("Resize() = %v, %v", res.Reason, res.Err)
	}
	if len(runner.calls) != 1 || !slices.Contains(runner.calls[0], ffmpeg.EncoderWebP) {
		t.Errorf("expected one libwebp call, got %v", runner.calls)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
	assertNoTempFiles(t, dir)
}

func TestResizeAVIFFallsBackToSVT(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{unavailable: []string{ffmpeg.EncoderAOM}}
	a := newTestAdapter(runner)
	dst := filepath.Join(dir, "photo-480.avif")

	res := a.Resize(context.Background(), ResizeRequest{Source: "photo.jpg", Destination: dst, Width: 480, Format: artifact.FormatAVIF})
	if !res.OK() {
		t.Fatalf("Resize() = %v, %v", res.Reason, res.Err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected 2 ffmpeg calls, got %d", len(runner.calls))
	}
	if !slices.Contains(runner.calls[1], ffmpeg.EncoderSVTAV1) {
		t.Errorf("second call should use libsvtav1: %v", runner.calls[1])
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
	assertNoTempFiles(t, dir)
}

func TestResizeAVIFNoEncoder(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{unavailable: []string{ffmpeg.EncoderAOM, ffmpeg.EncoderSVTAV1}}
	a := newTestAdapter(runner)

	res := a.Resize(context.Background(), ResizeRequest{Source: "photo.jpg", Destination: filepath.Join(dir, "p-480.avif"), Width: 480, Format: artifact.FormatAVIF})
	if res.Reason != ReasonEncodeFailed {
		t.Errorf("Reason = %v, want encode failed", res.Reason)
	}
	if res.Err == nil {
		t.Error("expected an error")
	}
}

func TestResizeEncodeFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	a := newTestAdapter(&fakeRunner{fail: true})
	dst := filepath.Join(dir, "photo-480.webp")

	res := a.Resize(context.Background(), ResizeRequest{Source: "photo.jpg", Destination: dst, Width: 480, Format: artifact.FormatWebP})
	if res.Reason != ReasonEncodeFailed {
		t.Errorf("Reason = %v, want encode failed", res.Reason)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination must not exist after failure")
	}
	assertNoTempFiles(t, dir)
}

func TestResizeUnsupportedFormat(t *testing.T) {
	a := newTestAdapter(&fakeRunner{})
	res := a.Resize(context.Background(), ResizeRequest{Source: "a.jpg", Destination: "a-480.bmp", Width: 480, Format: artifact.Format("bmp")})
	if res.Reason != ReasonUnsupportedFormat {
		t.Errorf("Reason = %v, want unsupported format", res.Reason)
	}
	if !errors.IsKind(res.Err, errors.KindUnsupportedFormat) {
		t.Errorf("Err = %v, want unsupported format kind", res.Err)
	}
}

func TestResizeRasterJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	writeImage(t, src, 1600, 1200)

	runner := &fakeRunner{}
	a := newTestAdapter(runner)
	dst := filepath.Join(dir, "photo-480.jpg")

	res := a.Resize(context.Background(), ResizeRequest{Source: src, Destination: dst, Width: 480, Format: artifact.FormatJPEG, Quality: 82})
	if !res.OK() {
		t.Fatalf("Resize() = %v, %v", res.Reason, res.Err)
	}
	if len(runner.calls) != 0 {
		t.Error("JPEG fallback should be encoded in process")
	}
	if w := decodedWidth(t, dst); w != 480 {
		t.Errorf("output width = %d, want 480", w)
	}
	assertNoTempFiles(t, dir)
}

func TestResizeRasterNeverUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "logo.png")
	writeImage(t, src, 300, 100)

	a := newTestAdapter(&fakeRunner{})
	dst := filepath.Join(dir, "logo-480.png")

	res := a.Resize(context.Background(), ResizeRequest{Source: src, Destination: dst, Width: 480, Format: artifact.FormatPNG})
	if !res.OK() {
		t.Fatalf("Resize() = %v, %v", res.Reason, res.Err)
	}
	if w := decodedWidth(t, dst); w != 300 {
		t.Errorf("output width = %d, want native 300", w)
	}
}

func TestResizeRasterUndecodableUsesFFmpeg(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hero.avif")
	if err := os.WriteFile(src, []byte("not an image Go can decode"), 0644); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	a := newTestAdapter(runner)
	res := a.Resize(context.Background(), ResizeRequest{Source: src, Destination: filepath.Join(dir, "hero-480.png"), Width: 480, Format: artifact.FormatPNG})
	if !res.OK() {
		t.Fatalf("Resize() = %v, %v", res.Reason, res.Err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected ffmpeg raster encode, got %d calls", len(runner.calls))
	}
}

func TestResizeRasterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := newTestAdapter(&fakeRunner{})
	res := a.Resize(ctx, ResizeRequest{Source: "x.jpg", Destination: "x-480.jpg", Width: 480, Format: artifact.FormatJPEG})
	if res.OK() || !errors.IsCancelled(res.Err) {
		t.Errorf("expected cancellation, got %v %v", res.Reason, res.Err)
	}
}

func TestNativeWidth(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	writeImage(t, src, 1600, 1200)

	a := newTestAdapter(&fakeRunner{})
	w, err := a.NativeWidth(context.Background(), src)
	if err != nil {
		t.Fatalf("NativeWidth() error = %v", err)
	}
	if w != 1600 {
		t.Errorf("NativeWidth() = %d, want 1600", w)
	}
}

func TestNativeWidthProbesUndecodable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hero.avif")
	if err := os.WriteFile(src, []byte("avif bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	a := newTestAdapter(&fakeRunner{})
	a.dimensions = func(context.Context, string) (ffprobe.Dimensions, error) {
		return ffprobe.Dimensions{Width: 2400, Height: 1600}, nil
	}
	w, err := a.NativeWidth(context.Background(), src)
	if err != nil || w != 2400 {
		t.Errorf("NativeWidth() = %d, %v; want 2400", w, err)
	}
}

func TestNativeWidthUnreadable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(src, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	a := newTestAdapter(&fakeRunner{})
	_, err := a.NativeWidth(context.Background(), src)
	if !errors.IsKind(err, errors.KindUnreadableSource) {
		t.Errorf("NativeWidth() error = %v, want unreadable source", err)
	}

	_, err = a.NativeWidth(context.Background(), filepath.Join(dir, "missing.jpg"))
	if !errors.IsKind(err, errors.KindUnreadableSource) {
		t.Errorf("NativeWidth(missing) error = %v, want unreadable source", err)
	}
}

func TestProbeDurationFailureIsZero(t *testing.T) {
	a := newTestAdapter(&fakeRunner{})
	if d := a.ProbeDuration(context.Background(), "video1.mp4"); d != 0 {
		t.Errorf("ProbeDuration() = %v, want 0", d)
	}

	a.probe = func(context.Context, string) (float64, error) { return 42.5, nil }
	if d := a.ProbeDuration(context.Background(), "video1.mp4"); d != 42.5 {
		t.Errorf("ProbeDuration() = %v, want 42.5", d)
	}
}

func TestExtractFrame(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	a := newTestAdapter(runner)
	dst := filepath.Join(dir, "video1.jpg")

	res := a.ExtractFrame(context.Background(), filepath.Join(dir, "video1.mp4"), dst, 1.0)
	if !res.OK() {
		t.Fatalf("ExtractFrame() = %v, %v", res.Reason, res.Err)
	}
	args := runner.calls[0]
	i := slices.Index(args, "-ss")
	if i < 0 || args[i+1] != "1.000" {
		t.Errorf("expected -ss 1.000 in %v", args)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Error("poster not written")
	}
}

func TestTranscodeReportsProgress(t *testing.T) {
	dir := t.TempDir()
	a := newTestAdapter(&fakeRunner{})

	var seen []float32
	res := a.Transcode(context.Background(), filepath.Join(dir, "video1.mp4"), filepath.Join(dir, "video1.webm"),
		TranscodeParams{CRF: 30, CPUUsed: 4, AudioBitrate: "128k", Duration: 10},
		func(p ffmpeg.Progress) { seen = append(seen, p.Percent) })
	if !res.OK() {
		t.Fatalf("Transcode() = %v, %v", res.Reason, res.Err)
	}
	if !slices.Equal(seen, []float32{50, 100}) {
		t.Errorf("progress = %v", seen)
	}
	assertNoTempFiles(t, dir)
}
