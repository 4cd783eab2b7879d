package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/lostlessvisuals/localprep/internal/util"
	"github.com/schollz/progressbar/v3"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu         sync.Mutex
	out        io.Writer
	errOut     io.Writer
	bars       bool
	verbose    bool
	progress   *progressbar.ProgressBar
	maxPercent float32
	lastStage  string
	cyan       *color.Color
	green      *color.Color
	yellow     *color.Color
	red        *color.Color
	magenta    *color.Color
	bold       *color.Color
	faint      *color.Color
}

// NewTerminalReporter creates a reporter writing to stdout and stderr.
// Progress bars are drawn only when stderr is a terminal.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return NewTerminalReporterWithWriters(os.Stdout, os.Stderr, verbose)
}

// NewTerminalReporterWithWriters creates a terminal reporter with custom writers.
func NewTerminalReporterWithWriters(out, errOut io.Writer, verbose bool) *TerminalReporter {
	return &TerminalReporter{
		out:     out,
		errOut:  errOut,
		bars:    isTerminal(errOut),
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) heading(title string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, strings.ToUpper(title))
}

func (r *TerminalReporter) RunStarted(info RunStartInfo) {
	r.heading("localprep")
	r.printLabel(9, "Document:", info.HTML)
	if info.Images {
		r.printLabel(9, "Images:", info.ImagesDir)
		widths := make([]string, len(info.Widths))
		for i, w := range info.Widths {
			widths[i] = strconv.Itoa(w)
		}
		r.printLabel(9, "Widths:", strings.Join(widths, ", "))
	}
	if info.Videos {
		r.printLabel(9, "Media:", info.MediaDir)
	}
	if info.LogFile != "" {
		r.printLabel(9, "Log:", info.LogFile)
	}
	if info.DryRun {
		r.printLabel(9, "Mode:", r.yellow.Sprint("dry run, nothing will be written"))
	}
}

func (r *TerminalReporter) StageStarted(info StageInfo) {
	r.mu.Lock()
	if r.lastStage == info.Stage {
		r.mu.Unlock()
		return
	}
	r.lastStage = info.Stage
	r.mu.Unlock()

	r.heading(info.Stage)
	switch {
	case info.Stage == StageDocument:
	case info.Total == 0:
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.faint.Sprint("no sources found"))
	default:
		_, _ = fmt.Fprintf(r.out, "  %d sources\n", info.Total)
	}
}

func (r *TerminalReporter) AssetStarted(asset AssetContext) {
	name := r.bold.Sprint(filepath.Base(asset.Source))
	counter := r.faint.Sprintf("[%d/%d]", asset.Index, asset.Total)
	if asset.Summary != "" {
		_, _ = fmt.Fprintf(r.out, "  %s %s %s\n", counter, name, r.faint.Sprintf("(%s)", asset.Summary))
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", counter, name)
}

func (r *TerminalReporter) ArtifactPlanned(event ArtifactEvent) {
	line := fmt.Sprintf("would write %s", filepath.Base(event.Path))
	if event.Detail != "" {
		line += fmt.Sprintf(" (%s)", event.Detail)
	}
	_, _ = fmt.Fprintf(r.out, "    %s %s\n", r.yellow.Sprint("[DRY]"), line)
}

func (r *TerminalReporter) ArtifactWritten(event ArtifactEvent) {
	line := filepath.Base(event.Path)
	if event.Detail != "" {
		line += " " + r.faint.Sprintf("(%s)", event.Detail)
	}
	if event.Size > 0 {
		line += " " + r.faint.Sprint(util.FormatBytes(event.Size))
	}
	_, _ = fmt.Fprintf(r.out, "    %s %s\n", r.magenta.Sprint("›"), line)
}

func (r *TerminalReporter) AssetSkipped(skip AssetSkip) {
	_, _ = fmt.Fprintf(r.out, "    %s\n", r.faint.Sprintf("Skip (%s)", skip.Reason))
}

func (r *TerminalReporter) EncodingStarted(info EncodingInfo) {
	r.finishProgress()

	if !r.bars {
		_, _ = fmt.Fprintf(r.out, "    %s encoding %s\n", r.magenta.Sprint("›"), filepath.Base(info.Destination))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "    WebM [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) EncodingProgress(progress ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	clamped := progress.Percent
	if clamped > 100 {
		clamped = 100
	}
	if clamped < 0 {
		clamped = 0
	}

	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}

	desc := fmt.Sprintf("speed %.1fx, fps %.1f, eta %s",
		progress.Speed, progress.FPS, util.FormatDuration(progress.ETA))
	r.progress.Describe(desc)
}

func (r *TerminalReporter) EncodingFinished() {
	r.finishProgress()
}

func (r *TerminalReporter) BlockRewritten(event BlockEvent) {
	var verb string
	switch event.Kind {
	case "wrap":
		verb = "wrap <img> in <picture>"
	case "update":
		verb = "update <picture>"
	case "video":
		verb = "rebuild <video> sources"
	default:
		verb = event.Kind
	}
	if event.DryRun {
		_, _ = fmt.Fprintf(r.out, "  %s would %s: %s\n", r.yellow.Sprint("[DRY]"), verb, event.Reference)
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s: %s\n", r.magenta.Sprint("›"), verb, event.Reference)
}

func (r *TerminalReporter) BlockSkipped(event BlockEvent) {
	if !r.verbose {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.faint.Sprintf("leave %s untouched (%s)", event.Reference, event.Reason))
}

func (r *TerminalReporter) DocumentWritten(outcome DocumentOutcome) {
	switch {
	case !outcome.Changed:
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.faint.Sprint("document already up to date"))
	case outcome.DryRun:
		_, _ = fmt.Fprintf(r.out, "  %s would back up and rewrite %s\n", r.yellow.Sprint("[DRY]"), outcome.Path)
	default:
		r.printLabel(7, "Backup:", outcome.Backup)
		r.printLabel(7, "Wrote:", r.green.Sprint(outcome.Path))
	}
}

func (r *TerminalReporter) Warning(message string) {
	_, _ = r.yellow.Fprintf(r.out, "  WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.finishProgress()
	_, _ = fmt.Fprintln(r.errOut)
	_, _ = r.red.Fprintf(r.errOut, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(r.errOut, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.faint.Sprint(message))
}

func (r *TerminalReporter) RunComplete(summary RunSummary) {
	r.finishProgress()

	title := "summary"
	if summary.DryRun {
		title = "summary (dry run)"
	}
	r.heading(title)

	headers := []string{"Stage", "Sources", "Rebuilt", "Artifacts", "Up to date", "Skipped"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
	rows := [][]string{
		{"Images",
			strconv.Itoa(summary.ImageSources),
			strconv.Itoa(summary.ImagesTouched),
			strconv.Itoa(summary.ImageArtifacts),
			strconv.Itoa(summary.ImagesUpToDate),
			strconv.Itoa(summary.ImagesUnreadable)},
		{"Videos",
			strconv.Itoa(summary.VideoSources),
			strconv.Itoa(summary.VideosTouched),
			strconv.Itoa(summary.VideoArtifacts),
			strconv.Itoa(summary.VideosUpToDate),
			"-"},
	}
	for _, line := range strings.Split(renderTable(headers, rows, aligns), "\n") {
		_, _ = fmt.Fprintf(r.out, "  %s\n", line)
	}

	r.printLabel(9, "Markup:", fmt.Sprintf("%d wrapped, %d updated, %d videos rebuilt, %d untouched",
		summary.BlocksWrapped, summary.BlocksUpdated, summary.VideosRebuilt, summary.BlocksUntouched))
	if summary.BytesWritten > 0 {
		r.printLabel(9, "Written:", util.FormatBytes(summary.BytesWritten))
	}
	r.printLabel(9, "Time:", util.FormatDuration(summary.Duration))
}

func (r *TerminalReporter) OperationComplete(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintf(r.out, "%s %s\n", r.green.Sprint("✓"), r.bold.Sprint(message))
}
