package compare

import (
	"fmt"

	"github.com/oneconcern/yap/pkg/errors"
)

var (
	// ErrMissingComparisonScript is returned when the custom technique is selected without a script
	ErrMissingComparisonScript = errors.New("custom comparison requires a script")

	// ErrComparisonScriptFailed is returned when a comparison script exits abnormally
	ErrComparisonScriptFailed = errors.New("comparison script failed")

	// ErrSnapshotUnreadable is returned when one side of a comparison cannot be read
	ErrSnapshotUnreadable = errors.New("cannot read file to compare")

	// ErrUnknownTechnique is returned for unsupported comparison techniques
	ErrUnknownTechnique = errors.New("unknown comparison technique")
)

// ScriptError details the failure of a comparison script
type ScriptError struct {
	Script     string
	ExitStatus int
	Stderr     string
	Err        error
}

func (e *ScriptError) Error() string {
	msg := fmt.Sprintf("script %q exited with status %d", e.Script, e.ExitStatus)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap the underlying execution error
func (e *ScriptError) Unwrap() error {
	return e.Err
}
