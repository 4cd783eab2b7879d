// Package errors defines the categorized errors a localprep run can fail
// with. Callers branch on the Kind, never on message text.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrorKind categorizes a failure.
type ErrorKind int

const (
	KindIO ErrorKind = iota
	KindCommand
	KindFFprobeParse
	KindConfig
	// KindMissingInput is a document or asset directory that does not exist.
	KindMissingInput
	// KindMissingTool is ffmpeg or ffprobe absent from PATH while needed.
	KindMissingTool
	// KindUnreadableSource is a source asset that cannot be decoded. It
	// skips one asset and never aborts a run.
	KindUnreadableSource
	KindUnsupportedFormat
	KindDocument
	// KindLocked means another run holds the document lock.
	KindLocked
	KindCancelled
)

var kindNames = map[ErrorKind]string{
	KindIO:                "I/O error",
	KindCommand:           "Command error",
	KindFFprobeParse:      "FFprobe parse error",
	KindConfig:            "Configuration error",
	KindMissingInput:      "Missing input",
	KindMissingTool:       "Missing tool",
	KindUnreadableSource:  "Unreadable source",
	KindUnsupportedFormat: "Unsupported format",
	KindDocument:          "Document error",
	KindLocked:            "Document locked",
	KindCancelled:         "Operation cancelled",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown error"
}

// CommandError describes an ffmpeg or ffprobe invocation that could not
// start or exited non-zero.
type CommandError struct {
	Command    string
	Started    bool
	ExitCode   int
	Stderr     string
	Underlying error
}

func (e *CommandError) Error() string {
	switch {
	case !e.Started:
		return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Underlying)
	case e.Stderr != "":
		return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
	default:
		return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	}
}

func (e *CommandError) Unwrap() error { return e.Underlying }

// CoreError carries a Kind, a human message and an optional cause.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Underlying }

// Is matches any *CoreError of the same Kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	return ok && e.Kind == t.Kind
}

func newError(kind ErrorKind, underlying error, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, Message: fmt.Sprintf(format, args...), Underlying: underlying}
}

func NewIOError(message string, underlying error) *CoreError {
	return newError(KindIO, underlying, "%s", message)
}

// NewCommandStartError reports an executable that could not be launched.
func NewCommandStartError(cmd string, err error) *CoreError {
	cmdErr := &CommandError{Command: cmd, Underlying: err}
	return newError(KindCommand, cmdErr, "%s did not start", cmd)
}

// NewCommandFailedError reports a non-zero exit. stderr is the tail of the
// tool's diagnostic output.
func NewCommandFailedError(cmd string, exitCode int, stderr string) *CoreError {
	cmdErr := &CommandError{Command: cmd, Started: true, ExitCode: exitCode, Stderr: stderr}
	return newError(KindCommand, cmdErr, "%s failed", cmd)
}

func NewFFprobeParseError(message string) *CoreError {
	return newError(KindFFprobeParse, nil, "%s", message)
}

func NewConfigError(message string) *CoreError {
	return newError(KindConfig, nil, "%s", message)
}

// NewMissingInputError names what is missing ("HTML", "images directory")
// and where it was expected.
func NewMissingInputError(what, path string) *CoreError {
	return newError(KindMissingInput, nil, "%s not found: %s", what, path)
}

// NewMissingToolError names the tool and the enabled work that needs it.
func NewMissingToolError(tool, reason string) *CoreError {
	return newError(KindMissingTool, nil, "%s not found on PATH but %s", tool, reason)
}

func NewUnreadableSourceError(path string, underlying error) *CoreError {
	return newError(KindUnreadableSource, underlying, "cannot read %s", path)
}

func NewUnsupportedFormatError(format string) *CoreError {
	return newError(KindUnsupportedFormat, nil, "unsupported format: %q", format)
}

func NewDocumentError(message string, underlying error) *CoreError {
	return newError(KindDocument, underlying, "%s", message)
}

func NewLockedError(path string) *CoreError {
	return newError(KindLocked, nil, "another localprep run is updating %s", path)
}

func NewCancelledError() *CoreError {
	return newError(KindCancelled, nil, "operation was cancelled by the user")
}

// IsKind reports whether any CoreError in err's chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	return errors.As(err, &coreErr) && coreErr.Kind == kind
}

func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// WrapExecError classifies an error returned by exec.Cmd.Run or Wait.
func WrapExecError(cmd string, err error, stderr string) *CoreError {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return NewCommandFailedError(cmd, exitErr.ExitCode(), stderr)
	}
	return NewCommandStartError(cmd, err)
}
