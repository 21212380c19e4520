package core

import (
	"fmt"
	"sort"

	"github.com/oneconcern/yap/pkg/model"
	"go.uber.org/multierr"
)

// Outcome of an operation on a single file
type Outcome string

// Terminal states of a file operation
const (
	OutcomeDone    Outcome = "done"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// FileOutcome reports how an operation went on one file
type FileOutcome struct {
	Path      string
	Branch    string
	Operation model.EventKind
	Outcome   Outcome
	Err       error

	// Bytes copied or transferred
	Bytes int64

	// Changed is set by commits, when the comparison reports a change
	Changed bool

	// Pointers are the remote transfers performed by push and pull
	Pointers []model.RemotePointer
}

// BatchResult collects the outcomes of all files processed in a batch
type BatchResult struct {
	Epoch     int64
	Operation model.EventKind
	PerFile   []FileOutcome
}

func (b *BatchResult) sort() {
	sort.SliceStable(b.PerFile, func(i, j int) bool {
		return b.PerFile[i].Path < b.PerFile[j].Path
	})
}

// Count files with some outcome
func (b *BatchResult) Count(outcome Outcome) int {
	var n int
	for _, o := range b.PerFile {
		if o.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failed tells if any file failed
func (b *BatchResult) Failed() bool {
	return b.Count(OutcomeFailed) > 0
}

// Err combines the errors of all failed files, or returns nil
func (b *BatchResult) Err() error {
	var err error
	for _, o := range b.PerFile {
		if o.Outcome == OutcomeFailed {
			err = multierr.Append(err, &FileError{Path: o.Path, Err: o.Err})
		}
	}
	return err
}

// FileError is the failure of an operation on some file
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap the cause
func (e *FileError) Unwrap() error {
	return e.Err
}
