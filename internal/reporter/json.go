package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs one JSON object per line for machine consumers.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return NewJSONReporterWithWriter(os.Stdout)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) RunStarted(info RunStartInfo) {
	r.write(map[string]interface{}{
		"type":       "run_started",
		"html":       info.HTML,
		"images_dir": info.ImagesDir,
		"media_dir":  info.MediaDir,
		"widths":     info.Widths,
		"images":     info.Images,
		"videos":     info.Videos,
		"dry_run":    info.DryRun,
		"log_file":   info.LogFile,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) StageStarted(info StageInfo) {
	r.write(map[string]interface{}{
		"type":      "stage_started",
		"stage":     info.Stage,
		"total":     info.Total,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) AssetStarted(asset AssetContext) {
	r.write(map[string]interface{}{
		"type":      "asset_started",
		"stage":     asset.Stage,
		"index":     asset.Index,
		"total":     asset.Total,
		"source":    asset.Source,
		"summary":   asset.Summary,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) artifact(kind string, event ArtifactEvent) {
	e := map[string]interface{}{
		"type":      kind,
		"source":    event.Source,
		"path":      event.Path,
		"role":      event.Role,
		"dry_run":   event.DryRun,
		"timestamp": r.timestamp(),
	}
	if event.Width > 0 {
		e["width"] = event.Width
	}
	if event.Size > 0 {
		e["size"] = event.Size
	}
	if event.Detail != "" {
		e["detail"] = event.Detail
	}
	r.write(e)
}

func (r *JSONReporter) ArtifactPlanned(event ArtifactEvent) {
	r.artifact("artifact_planned", event)
}

func (r *JSONReporter) ArtifactWritten(event ArtifactEvent) {
	r.artifact("artifact_written", event)
}

func (r *JSONReporter) AssetSkipped(skip AssetSkip) {
	r.write(map[string]interface{}{
		"type":      "asset_skipped",
		"source":    skip.Source,
		"reason":    skip.Reason,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) EncodingStarted(info EncodingInfo) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":             "encoding_started",
		"source":           info.Source,
		"destination":      info.Destination,
		"duration_seconds": info.Duration,
		"timestamp":        r.timestamp(),
	})
}

func (r *JSONReporter) EncodingProgress(progress ProgressSnapshot) {
	const progressBucketSize = 5
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent) / progressBucketSize
	now := time.Now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed || progress.Percent >= 99.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":          "encoding_progress",
		"current_frame": progress.CurrentFrame,
		"percent":       progress.Percent,
		"speed":         progress.Speed,
		"fps":           progress.FPS,
		"eta_seconds":   int64(progress.ETA.Seconds()),
		"bitrate":       progress.Bitrate,
		"timestamp":     r.timestamp(),
	})
}

func (r *JSONReporter) EncodingFinished() {
	r.write(map[string]interface{}{
		"type":      "encoding_finished",
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) block(kind string, event BlockEvent) {
	e := map[string]interface{}{
		"type":      kind,
		"kind":      event.Kind,
		"reference": event.Reference,
		"base":      event.Base,
		"dry_run":   event.DryRun,
		"timestamp": r.timestamp(),
	}
	if event.Reason != "" {
		e["reason"] = event.Reason
	}
	r.write(e)
}

func (r *JSONReporter) BlockRewritten(event BlockEvent) {
	r.block("block_rewritten", event)
}

func (r *JSONReporter) BlockSkipped(event BlockEvent) {
	r.block("block_skipped", event)
}

func (r *JSONReporter) DocumentWritten(outcome DocumentOutcome) {
	r.write(map[string]interface{}{
		"type":      "document_written",
		"path":      outcome.Path,
		"changed":   outcome.Changed,
		"backup":    outcome.Backup,
		"dry_run":   outcome.DryRun,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

// Verbose messages are terminal-only.
func (r *JSONReporter) Verbose(string) {}

func (r *JSONReporter) RunComplete(summary RunSummary) {
	r.write(map[string]interface{}{
		"type":              "run_complete",
		"image_sources":     summary.ImageSources,
		"images_touched":    summary.ImagesTouched,
		"image_artifacts":   summary.ImageArtifacts,
		"images_up_to_date": summary.ImagesUpToDate,
		"images_unreadable": summary.ImagesUnreadable,
		"video_sources":     summary.VideoSources,
		"videos_touched":    summary.VideosTouched,
		"video_artifacts":   summary.VideoArtifacts,
		"videos_up_to_date": summary.VideosUpToDate,
		"blocks_wrapped":    summary.BlocksWrapped,
		"blocks_updated":    summary.BlocksUpdated,
		"videos_rebuilt":    summary.VideosRebuilt,
		"blocks_untouched":  summary.BlocksUntouched,
		"bytes_written":     summary.BytesWritten,
		"document_changed":  summary.DocumentChanged,
		"backup":            summary.BackupPath,
		"dry_run":           summary.DryRun,
		"duration_seconds":  summary.Duration.Seconds(),
		"timestamp":         r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]interface{}{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}
