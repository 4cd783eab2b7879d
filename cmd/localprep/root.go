package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lostlessvisuals/localprep"
	"github.com/lostlessvisuals/localprep/internal/config"
	"github.com/lostlessvisuals/localprep/internal/logging"
	"github.com/lostlessvisuals/localprep/internal/processing"
	"github.com/lostlessvisuals/localprep/internal/reporter"
)

const appName = "localprep"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// lookPath resolves ffmpeg and ffprobe. Tests replace it.
var lookPath = exec.LookPath

// reportedError marks a run failure the reporter has already shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// rootFlags holds every flag of the root command.
type rootFlags struct {
	configPath       string
	html             string
	imagesDir        string
	mediaDir         string
	widths           string
	sizes            string
	onlyImages       bool
	onlyVideos       bool
	forceImages      bool
	forceVideos      bool
	noFallbackRaster bool
	dryRun           bool
	verbose          bool
	logDir           string
	noLog            bool
	json             bool
	eventsPath       string
}

func newRootCommand() *cobra.Command {
	f := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Prepare responsive images and web video for a static site",
		Long: `localprep builds AVIF/WebP/raster variants for every image in the images
directory and a poster plus WebM transcode for every video{N}.mp4 in the media
directory, then rewrites the site's HTML to reference them. Outputs are rebuilt
only when their source is newer. The HTML is backed up before it is changed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, f)
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&f.configPath, "config", "c", "", "Configuration file path")
	persistent.StringVar(&f.html, "html", config.DefaultHTML, "HTML document to rewrite")
	persistent.StringVar(&f.imagesDir, "images-dir", config.DefaultImagesDir, "Directory of image sources and variants")
	persistent.StringVar(&f.mediaDir, "media-dir", config.DefaultMediaDir, "Directory of video{N}.mp4 sources and their outputs")
	persistent.StringVar(&f.widths, "widths", "480,800,1080", "Comma-separated responsive widths")
	persistent.StringVar(&f.sizes, "sizes", config.DefaultSizes, "sizes= value for images that have none")
	persistent.StringVar(&f.logDir, "log-dir", "", "Log directory (defaults to ~/.local/state/localprep/logs)")

	flags := rootCmd.Flags()
	flags.BoolVar(&f.onlyImages, "only-images", false, "Process images only")
	flags.BoolVar(&f.onlyVideos, "only-videos", false, "Process videos only")
	flags.BoolVar(&f.forceImages, "force-images", false, "Rebuild every image variant")
	flags.BoolVar(&f.forceVideos, "force-videos", false, "Rebuild every poster and transcode")
	flags.BoolVar(&f.noFallbackRaster, "no-fallback-raster", false, "Skip JPEG/PNG variants")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Show what would change without writing anything")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVar(&f.noLog, "no-log", false, "Disable log file creation")
	flags.BoolVar(&f.json, "json", false, "Write NDJSON events to stdout")
	flags.StringVar(&f.eventsPath, "events", "", "Also write NDJSON events to this file")
	rootCmd.MarkFlagsMutuallyExclusive("only-images", "only-videos")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newConfigCommand(f))

	return rootCmd
}

// loadConfig layers the config file, then explicitly set flags, over the
// defaults and resolves paths.
func loadConfig(cmd *cobra.Command, f *rootFlags) (*config.Config, string, bool, error) {
	cfg, path, exists, err := config.Load(strings.TrimSpace(f.configPath))
	if err != nil {
		return nil, "", false, err
	}

	flags := cmd.Flags()
	if flags.Changed("html") {
		cfg.Paths.HTML = f.html
	}
	if flags.Changed("images-dir") {
		cfg.Paths.ImagesDir = f.imagesDir
	}
	if flags.Changed("media-dir") {
		cfg.Paths.MediaDir = f.mediaDir
	}
	if flags.Changed("log-dir") {
		cfg.Paths.LogDir = f.logDir
	}
	if flags.Changed("widths") {
		widths, err := localprep.ParseWidths(f.widths)
		if err != nil {
			return nil, "", false, err
		}
		cfg.Images.Widths = widths
	}
	if flags.Changed("sizes") {
		cfg.Images.Sizes = f.sizes
	}
	if flags.Changed("no-fallback-raster") {
		cfg.Images.FallbackRaster = !f.noFallbackRaster
	}
	if flags.Changed("verbose") {
		cfg.Logging.Verbose = f.verbose
	}
	if flags.Changed("no-log") {
		cfg.Logging.Disabled = f.noLog
	}

	cfg.Run = config.Run{
		OnlyImages:  f.onlyImages,
		OnlyVideos:  f.onlyVideos,
		ForceImages: f.forceImages,
		ForceVideos: f.forceVideos,
		DryRun:      f.dryRun,
		JSON:        f.json,
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}
	return cfg, path, exists, nil
}

func runPrepare(cmd *cobra.Command, f *rootFlags) error {
	cfg, cfgPath, cfgExists, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.Paths.LogDir, cfg.Logging.Verbose, cfg.Logging.Disabled)
	if err != nil {
		return err
	}
	defer logger.Close()
	if cfgExists {
		logger.Info("configuration loaded", "path", cfgPath)
	}
	logger.Info("effective configuration",
		"html", cfg.Paths.HTML,
		"images_dir", cfg.Paths.ImagesDir,
		"media_dir", cfg.Paths.MediaDir,
		"widths", cfg.SortedWidths(),
		"fallback_raster", cfg.Images.FallbackRaster,
		"only_images", cfg.Run.OnlyImages,
		"only_videos", cfg.Run.OnlyVideos,
		"force_images", cfg.Run.ForceImages,
		"force_videos", cfg.Run.ForceVideos,
		"dry_run", cfg.Run.DryRun)

	var rep reporter.Reporter
	if cfg.Run.JSON {
		rep = reporter.NewJSONReporterWithWriter(cmd.OutOrStdout())
	} else {
		rep = reporter.NewTerminalReporterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Logging.Verbose)
	}
	if f.eventsPath != "" {
		path, err := config.ExpandPath(f.eventsPath)
		if err != nil {
			return fmt.Errorf("resolve events path: %w", err)
		}
		events, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("open events file: %w", err)
		}
		defer events.Close()
		rep = reporter.NewCompositeReporter(rep, reporter.NewJSONReporterWithWriter(events))
	}

	runner := &processing.Runner{
		Config:   cfg,
		Reporter: rep,
		Logger:   logger,
		LookPath: lookPath,
	}
	if _, err := runner.Run(cmd.Context()); err != nil {
		return &reportedError{err: err}
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
			return nil
		},
	}
}
