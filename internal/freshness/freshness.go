// Package freshness decides whether derived artifacts must be rebuilt from
// their source. Freshness is inferred only from modification times observed
// at query time; nothing is persisted between runs.
package freshness

import (
	"os"

	"github.com/lostlessvisuals/localprep/internal/errors"
)

// Oracle answers staleness questions for a source and its artifacts.
type Oracle interface {
	// IsStale reports whether any artifact is missing or not strictly newer
	// than source. A missing source is an error.
	IsStale(source string, artifacts []string) (bool, error)
	// IsFresh reports whether a single artifact exists and is strictly newer
	// than source.
	IsFresh(source, artifact string) (bool, error)
}

// MtimeOracle compares filesystem modification times. When Force is set
// every query reports stale.
type MtimeOracle struct {
	Force bool
}

// NewMtimeOracle returns an oracle that forces rebuilds when force is true.
func NewMtimeOracle(force bool) *MtimeOracle {
	return &MtimeOracle{Force: force}
}

// IsStale implements Oracle. Equal timestamps count as stale.
func (o *MtimeOracle) IsStale(source string, artifacts []string) (bool, error) {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return false, errors.NewUnreadableSourceError(source, err)
	}
	if o.Force {
		return true, nil
	}
	for _, artifact := range artifacts {
		if !newerThan(artifact, srcInfo) {
			return true, nil
		}
	}
	return false, nil
}

// IsFresh implements Oracle.
func (o *MtimeOracle) IsFresh(source, artifact string) (bool, error) {
	stale, err := o.IsStale(source, []string{artifact})
	return !stale, err
}

func newerThan(artifact string, src os.FileInfo) bool {
	info, err := os.Stat(artifact)
	if err != nil || info.IsDir() {
		return false
	}
	return info.ModTime().After(src.ModTime())
}
