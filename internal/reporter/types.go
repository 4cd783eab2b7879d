// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// Stage names.
const (
	StageImages   = "images"
	StageVideos   = "videos"
	StageDocument = "document"
)

// RunStartInfo describes the run about to start.
type RunStartInfo struct {
	HTML      string
	ImagesDir string
	MediaDir  string
	Widths    []int
	Images    bool
	Videos    bool
	DryRun    bool
	LogFile   string
}

// StageInfo announces a processing stage.
type StageInfo struct {
	Stage string
	Total int
}

// AssetContext identifies the source asset being planned.
type AssetContext struct {
	Stage   string
	Index   int
	Total   int
	Source  string
	Summary string // e.g. "1600px wide" or "42s"
}

// ArtifactEvent describes one derived file.
type ArtifactEvent struct {
	Source string
	Path   string
	Role   string
	Width  int
	Size   uint64
	DryRun bool
	// Detail carries extra context, such as the poster capture time.
	Detail string
}

// AssetSkip explains why a source produced no work.
type AssetSkip struct {
	Source string
	Reason string
}

// EncodingInfo announces a long-running transcode.
type EncodingInfo struct {
	Source      string
	Destination string
	Duration    float64
}

// ProgressSnapshot contains encoding progress information.
type ProgressSnapshot struct {
	CurrentFrame uint64
	Percent      float32
	Speed        float32
	FPS          float32
	ETA          time.Duration
	Bitrate      string
}

// BlockEvent describes a located markup block.
type BlockEvent struct {
	Kind      string // "wrap", "update" or "video"
	Reference string
	Base      string
	Reason    string
	DryRun    bool
}

// DocumentOutcome describes what happened to the HTML document.
type DocumentOutcome struct {
	Path    string
	Changed bool
	Backup  string
	DryRun  bool
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// RunSummary contains end-of-run counters.
type RunSummary struct {
	ImageSources     int
	ImagesTouched    int
	ImageArtifacts   int
	ImagesUpToDate   int
	ImagesUnreadable int
	VideoSources     int
	VideosTouched    int
	VideoArtifacts   int
	VideosUpToDate   int
	BlocksWrapped    int
	BlocksUpdated    int
	VideosRebuilt    int
	BlocksUntouched  int
	BytesWritten     uint64
	DocumentChanged  bool
	BackupPath       string
	DryRun           bool
	Duration         time.Duration
}
