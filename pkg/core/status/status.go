// Package status exports errors produced by the core package.
//
// Errors fall in a few classes: configuration errors abort a batch before any I/O, per-file errors
// are collected in the batch result, and master logbook failures abort the whole batch.
package status

import (
	"github.com/oneconcern/yap/pkg/compare"
	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/logbook"
	"github.com/oneconcern/yap/pkg/remote"
)

var (
	// ErrConfiguration indicates an invalid project or operation configuration
	ErrConfiguration = errors.New("configuration error")

	// ErrUnsupportedContextCombination indicates an operation was configured with both a comparison and a remote,
	// or without the one it requires
	ErrUnsupportedContextCombination = errors.New("unsupported combination of comparison and remote configurations")

	// ErrDirectoryUnreadable indicates a directory could not be listed while walking input paths
	ErrDirectoryUnreadable = errors.New("directory unreadable")

	// ErrIO indicates a failure to read or write a file
	ErrIO = errors.New("i/o error")

	// ErrPersistence indicates a failure to write to a per-file logbook
	ErrPersistence = logbook.ErrPersistence

	// ErrMasterPersistence indicates a failure to read or write the master logbook. It aborts the batch.
	ErrMasterPersistence = errors.New("master logbook failure")

	// ErrComparison indicates a failure to compare two snapshots
	ErrComparison = errors.New("comparison failed")

	// ErrNoBaselineSnapshot indicates there is no previous snapshot to compare with
	ErrNoBaselineSnapshot = errors.New("no baseline snapshot")

	// ErrStaleEpoch indicates a snapshot would not be more recent than the existing ones
	ErrStaleEpoch = errors.New("epoch is not more recent than the latest snapshot")

	// ErrNotTracked indicates the operation requires a tracked file
	ErrNotTracked = errors.New("file is not tracked")

	// ErrInterrupted signals that the current background processing has been interrupted
	ErrInterrupted = errors.New("background processing interrupted")

	// ErrMissingComparisonScript is a configuration error for the custom comparison technique
	ErrMissingComparisonScript = compare.ErrMissingComparisonScript

	// ErrSnapshotUnreadable indicates the content of a snapshot cannot be read
	ErrSnapshotUnreadable = compare.ErrSnapshotUnreadable

	// ErrComparisonScriptFailed indicates a custom comparison script exited abnormally
	ErrComparisonScriptFailed = compare.ErrComparisonScriptFailed

	// ErrRemoteTransferFailed indicates a push, pull or delete on a remote storage failed
	ErrRemoteTransferFailed = remote.ErrTransferFailed
)
