package core

import (
	"github.com/oneconcern/yap/pkg/compare"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/oneconcern/yap/pkg/remote"
)

// OperationConfig describes the operation applied to a batch of files.
//
// Commit requires a comparison configuration. Push, pull and remove require a remote configuration.
// Add requires none. Setting both is not supported.
type OperationConfig struct {
	Operation  model.EventKind
	Comparison *ComparisonConfig
	Remote     *remote.Config
	Message    string
}

// Context carries everything needed to apply one operation to one file of a batch
type Context struct {
	Path      string
	Branch    string
	Epoch     int64
	Author    model.Author
	Operation model.EventKind
	Message   string

	// Comparison is set for commits only
	Comparison *compare.Engine

	// Remote is set for push, pull and remove operations
	Remote *remote.Adapter
}

// Snapshot of the file at the batch epoch
func (c *Context) Snapshot() model.Snapshot {
	return c.SnapshotAt(c.Epoch)
}

// SnapshotAt some other epoch
func (c *Context) SnapshotAt(epoch int64) model.Snapshot {
	return model.Snapshot{
		Path:   c.Path,
		Branch: c.Branch,
		Epoch:  epoch,
		Author: c.Author,
	}
}

// TrackedFile registered in the master logbook when the file is added
func (c *Context) TrackedFile() model.TrackedFile {
	return model.TrackedFile{
		Path:   c.Path,
		Branch: c.Branch,
		Author: c.Author,
	}
}

// Event for the master logbook, once the operation is done.
//
// Events are stamped with the batch epoch, so that they match the snapshots taken by the batch.
func (c *Context) Event() model.Event {
	return model.Event{
		Timestamp: c.Epoch,
		Path:      c.Path,
		Branch:    c.Branch,
		Kind:      c.Operation,
	}
}
