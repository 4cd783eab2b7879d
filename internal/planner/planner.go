// Package planner decides, per source asset, which derived artifacts are
// stale and asks the codec adapter to rebuild them.
package planner

import (
	"context"
	"fmt"

	"github.com/lostlessvisuals/localprep/internal/codec"
	"github.com/lostlessvisuals/localprep/internal/errors"
	"github.com/lostlessvisuals/localprep/internal/reporter"
	"github.com/lostlessvisuals/localprep/internal/util"
)

// Skip reasons reported for sources that produce no work.
const (
	ReasonUpToDate   = "already up-to-date"
	ReasonUnreadable = "unreadable"
)

// Outcome holds per-stage counters.
type Outcome struct {
	Sources int
	// Touched counts sources for which at least one artifact was (or, in a
	// dry run, would be) rebuilt.
	Touched    int
	Artifacts  int
	UpToDate   int
	Unreadable int
	// BytesWritten is the total size of artifacts written.
	BytesWritten uint64
}

func nullReporter(rep reporter.Reporter) reporter.Reporter {
	if rep == nil {
		return reporter.NullReporter{}
	}
	return rep
}

// resultError turns a failed codec result into a run-aborting error.
func resultError(ctx context.Context, res codec.Result, what string) error {
	if ctx.Err() != nil {
		return errors.NewCancelledError()
	}
	if res.Reason == codec.ReasonUnsupportedFormat {
		return res.Err
	}
	return fmt.Errorf("%s (%s): %w", what, res.Reason, res.Err)
}

func fileSize(path string) uint64 {
	size, err := util.FileSize(path)
	if err != nil {
		return 0
	}
	return size
}
