// Package processing runs a complete localprep pass: preflight checks, the
// image and video stages, and the single rewrite of the site document.
package processing

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/lostlessvisuals/localprep/internal/codec"
	"github.com/lostlessvisuals/localprep/internal/config"
	"github.com/lostlessvisuals/localprep/internal/discovery"
	"github.com/lostlessvisuals/localprep/internal/document"
	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/freshness"
	"github.com/lostlessvisuals/localprep/internal/logging"
	"github.com/lostlessvisuals/localprep/internal/planner"
	"github.com/lostlessvisuals/localprep/internal/reporter"
	"github.com/lostlessvisuals/localprep/internal/snapshot"
	"github.com/lostlessvisuals/localprep/internal/util"
)

// staleTempAge is how old an abandoned temp output must be before a run
// removes it.
const staleTempAge = 24 * time.Hour

// Runner holds everything one run needs. Only Config is required.
type Runner struct {
	Config   *config.Config
	Reporter reporter.Reporter
	Logger   *logging.Logger
	// Adapter performs all encoding. Nil means ffmpeg.
	Adapter codec.Adapter
	// LookPath resolves external tools. Nil means exec.LookPath.
	LookPath func(file string) (string, error)
	// LockDir holds the run lock. Empty means the system temp directory.
	LockDir string
}

// Run executes one pass. The summary is filled in as far as the run got,
// even when an error is returned.
func (r *Runner) Run(ctx context.Context) (reporter.RunSummary, error) {
	rep := r.Reporter
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	cfg := r.Config
	start := time.Now()
	summary := reporter.RunSummary{DryRun: cfg.Run.DryRun}

	if err := r.run(ctx, rep, &summary); err != nil {
		r.Logger.Error("run failed", "error", err)
		rep.Error(describe(err, cfg))
		return summary, err
	}

	summary.Duration = time.Since(start)
	r.Logger.Info("run complete",
		"artifacts", summary.ImageArtifacts+summary.VideoArtifacts,
		"document_changed", summary.DocumentChanged,
		"duration", summary.Duration)
	rep.RunComplete(summary)
	rep.OperationComplete("Done.")
	return summary, nil
}

func (r *Runner) run(ctx context.Context, rep reporter.Reporter, summary *reporter.RunSummary) error {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return errors.NewConfigError(err.Error())
	}
	if err := r.preflight(); err != nil {
		return err
	}

	rep.RunStarted(reporter.RunStartInfo{
		HTML:      cfg.Paths.HTML,
		ImagesDir: cfg.Paths.ImagesDir,
		MediaDir:  cfg.Paths.MediaDir,
		Widths:    cfg.SortedWidths(),
		Images:    cfg.DoImages(),
		Videos:    cfg.DoVideos(),
		DryRun:    cfg.Run.DryRun,
		LogFile:   r.Logger.FilePath(),
	})

	// Parse up front so broken markup fails before any encoding.
	doc, err := document.Load(cfg.Paths.HTML)
	if err != nil {
		return err
	}
	before, err := doc.Render()
	if err != nil {
		return err
	}

	if !cfg.Run.DryRun {
		if err := r.prepareDirectories(rep); err != nil {
			return err
		}

		lock, err := snapshot.Acquire(r.LockDir, cfg.Paths.HTML)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				r.Logger.Warn("failed to release run lock", "path", lock.Path(), "error", err)
			}
		}()
		r.Logger.Debug("run lock acquired", "path", lock.Path())
	}

	adapter := r.Adapter
	if adapter == nil {
		adapter = codec.NewFFmpegAdapter(cfg, r.Logger)
	}

	if cfg.DoImages() {
		if err := r.imageStage(ctx, adapter, rep, summary); err != nil {
			return err
		}
	}
	if cfg.DoVideos() {
		if err := r.videoStage(ctx, adapter, rep, summary); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return errors.NewCancelledError()
	}

	return r.documentStage(doc, before, rep, summary)
}

// preflight checks inputs and tools before any work starts.
func (r *Runner) preflight() error {
	cfg := r.Config
	if !util.FileExists(cfg.Paths.HTML) {
		return errors.NewMissingInputError("HTML", cfg.Paths.HTML)
	}
	if cfg.DoImages() && !util.DirectoryExists(cfg.Paths.ImagesDir) {
		return errors.NewMissingInputError("images directory", cfg.Paths.ImagesDir)
	}
	if cfg.DoVideos() && !util.DirectoryExists(cfg.Paths.MediaDir) {
		return errors.NewMissingInputError("media directory", cfg.Paths.MediaDir)
	}

	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if cfg.DoImages() {
		if _, err := lookPath("ffmpeg"); err != nil {
			return errors.NewMissingToolError("ffmpeg", "image processing is enabled")
		}
	}
	if cfg.DoVideos() {
		for _, tool := range []string{"ffmpeg", "ffprobe"} {
			if _, err := lookPath(tool); err != nil {
				return errors.NewMissingToolError(tool, "video processing is enabled")
			}
		}
	}
	return nil
}

// prepareDirectories checks that every directory the run writes to is
// writable, removes abandoned temp outputs and warns about low free space.
func (r *Runner) prepareDirectories(rep reporter.Reporter) error {
	cfg := r.Config
	dirs := []string{filepath.Dir(cfg.Paths.HTML)}
	if cfg.DoImages() {
		dirs = append(dirs, cfg.Paths.ImagesDir)
	}
	if cfg.DoVideos() {
		dirs = append(dirs, cfg.Paths.MediaDir)
	}

	for _, dir := range dirs {
		if err := util.EnsureDirectoryWritable(dir); err != nil {
			return errors.NewIOError("output directory is not writable", err)
		}
		removed, err := util.CleanupStaleTempFiles(dir, util.TempPrefix, staleTempAge)
		if err != nil {
			r.Logger.Warn("failed to clean stale temp files", "dir", dir, "error", err)
		} else if removed > 0 {
			r.Logger.Info("removed stale temp files", "dir", dir, "count", removed)
		}
		util.CheckDiskSpace(dir, func(format string, args ...any) {
			msg := fmt.Sprintf(format, args...)
			r.Logger.Warn(msg)
			rep.Warning(msg)
		})
	}
	return nil
}

func (r *Runner) imageStage(ctx context.Context, adapter codec.Adapter, rep reporter.Reporter, summary *reporter.RunSummary) error {
	cfg := r.Config
	found, err := discovery.FindImageSources(cfg.Paths.ImagesDir, r.Logger)
	if err != nil {
		return errors.NewIOError("failed to list image sources", err)
	}

	p := planner.NewImagePlanner(adapter, freshness.NewMtimeOracle(cfg.Run.ForceImages), rep, r.Logger, planner.ImageOptions{
		Widths:         cfg.Images.Widths,
		FallbackRaster: cfg.Images.FallbackRaster,
		Quality:        cfg.Images.Quality,
		DryRun:         cfg.Run.DryRun,
	})
	out, err := p.Plan(ctx, found.Files)
	summary.ImageSources = out.Sources
	summary.ImagesTouched = out.Touched
	summary.ImageArtifacts = out.Artifacts
	summary.ImagesUpToDate = out.UpToDate
	summary.ImagesUnreadable = out.Unreadable
	summary.BytesWritten += out.BytesWritten
	return err
}

func (r *Runner) videoStage(ctx context.Context, adapter codec.Adapter, rep reporter.Reporter, summary *reporter.RunSummary) error {
	cfg := r.Config
	found, err := discovery.FindVideoSources(cfg.Paths.MediaDir, r.Logger)
	if err != nil {
		return errors.NewIOError("failed to list video sources", err)
	}

	p := planner.NewVideoPlanner(adapter, freshness.NewMtimeOracle(cfg.Run.ForceVideos), rep, r.Logger, planner.VideoOptions{
		CRF:              cfg.Videos.CRF,
		CPUUsed:          cfg.Videos.CPUUsed,
		AudioBitrate:     cfg.Videos.AudioBitrate,
		PosterFraction:   cfg.Videos.PosterFraction,
		MinPosterSeconds: cfg.Videos.MinPosterSeconds,
		DryRun:           cfg.Run.DryRun,
	})
	out, err := p.Plan(ctx, found.Files)
	summary.VideoSources = out.Sources
	summary.VideosTouched = out.Touched
	summary.VideoArtifacts = out.Artifacts
	summary.VideosUpToDate = out.UpToDate
	summary.BytesWritten += out.BytesWritten
	return err
}

// documentStage runs both rewrite passes on the shared document and writes
// it once, after a backup, when its rendering changed.
func (r *Runner) documentStage(doc *document.Document, before []byte, rep reporter.Reporter, summary *reporter.RunSummary) error {
	cfg := r.Config
	loc := document.NewLocator(cfg.Images.ReferenceToken, cfg.Videos.MediaPrefix)
	rw := document.NewRewriter(doc.Dir(), document.RewriteOptions{
		ImagesDir:     cfg.Paths.ImagesDir,
		MediaDir:      cfg.Paths.MediaDir,
		Sizes:         cfg.Images.Sizes,
		FallbackWidth: cfg.Images.FallbackWidth,
		MediaPrefix:   cfg.Videos.MediaPrefix,
	})

	var changes []document.Change
	if cfg.DoImages() {
		imageChanges, err := rw.RewriteImages(doc, loc)
		changes = append(changes, imageChanges...)
		if err != nil {
			return err
		}
	}
	if cfg.DoVideos() {
		changes = append(changes, rw.RewriteVideos(doc, loc)...)
	}
	rep.StageStarted(reporter.StageInfo{Stage: reporter.StageDocument, Total: len(changes)})

	for _, c := range changes {
		event := reporter.BlockEvent{Kind: c.Kind.String(), Reference: c.Reference, Base: c.Base, Reason: c.Reason, DryRun: cfg.Run.DryRun}
		if !c.Changed {
			summary.BlocksUntouched++
			if event.Reason == "" {
				event.Reason = "already current"
			}
			rep.BlockSkipped(event)
			r.Logger.Debug("block untouched", "kind", event.Kind, "reference", c.Reference, "reason", event.Reason)
			continue
		}
		switch c.Kind {
		case document.BlockBare:
			summary.BlocksWrapped++
		case document.BlockGrouped:
			summary.BlocksUpdated++
		case document.BlockVideo:
			summary.VideosRebuilt++
		}
		rep.BlockRewritten(event)
		r.Logger.Info("block rewritten", "kind", event.Kind, "reference", c.Reference, "dry_run", cfg.Run.DryRun)
	}

	after, err := doc.Render()
	if err != nil {
		return err
	}
	outcome := reporter.DocumentOutcome{Path: cfg.Paths.HTML, DryRun: cfg.Run.DryRun}
	outcome.Changed = !bytes.Equal(before, after)
	summary.DocumentChanged = outcome.Changed

	if outcome.Changed && !cfg.Run.DryRun {
		backup, err := snapshot.Backup(cfg.Paths.HTML, time.Now())
		if err != nil {
			return err
		}
		r.Logger.Info("document backed up", "backup", backup)
		if err := snapshot.WriteAtomic(cfg.Paths.HTML, after); err != nil {
			return err
		}
		r.Logger.Info("document written", "path", cfg.Paths.HTML, "bytes", len(after))
		outcome.Backup = backup
		summary.BackupPath = backup
	}
	rep.DocumentWritten(outcome)
	return nil
}

// describe turns a run error into a user-facing report.
func describe(err error, cfg *config.Config) reporter.ReporterError {
	e := reporter.ReporterError{Title: "Run Failed", Message: err.Error()}
	switch {
	case errors.IsKind(err, errors.KindMissingInput):
		e.Title = "Missing Input"
		e.Suggestion = "Check --html, --images-dir and --media-dir, or run from the site root"
	case errors.IsKind(err, errors.KindMissingTool):
		e.Title = "Missing Tool"
		e.Suggestion = "Install ffmpeg (it provides ffprobe) and make sure it is on PATH"
	case errors.IsKind(err, errors.KindConfig):
		e.Title = "Configuration Error"
		e.Suggestion = "Run 'localprep config show' to inspect the effective configuration"
	case errors.IsKind(err, errors.KindDocument):
		e.Title = "Document Error"
		e.Context = fmt.Sprintf("File: %s", cfg.Paths.HTML)
	case errors.IsKind(err, errors.KindLocked):
		e.Title = "Document Locked"
		e.Suggestion = "Wait for the other run to finish"
	case errors.IsKind(err, errors.KindCommand):
		e.Title = "Encoding Error"
		e.Suggestion = "Check the run log for the full ffmpeg command and output"
	case errors.IsKind(err, errors.KindCancelled):
		e.Title = "Cancelled"
	}
	return e
}
