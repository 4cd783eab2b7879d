package ffmpeg

import "testing"

func TestStillSvtParams(t *testing.T) {
	if got := StillSvtParams().String(); got != "avif=1:tune=0" {
		t.Errorf("StillSvtParams() = %q, want %q", got, "avif=1:tune=0")
	}
	if got := (SvtParams{}).String(); got != "" {
		t.Errorf("empty params = %q", got)
	}
}

func TestScaleFilter(t *testing.T) {
	tests := []struct {
		width int
		want  string
	}{
		{800, "scale='min(800,iw)':-2:flags=lanczos"},
		{0, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := ScaleFilter(tt.width); got != tt.want {
			t.Errorf("ScaleFilter(%d) = %q, want %q", tt.width, got, tt.want)
		}
	}
}
