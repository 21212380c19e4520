package core

import (
	"context"

	"github.com/oneconcern/yap/pkg/compare"
	"github.com/oneconcern/yap/pkg/core/status"
	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/logbook"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/oneconcern/yap/pkg/remote"
	"github.com/oneconcern/yap/pkg/snapshot"
	"go.uber.org/zap"
)

// flow drives the state transitions of one operation on one file.
//
// The context is checked before each transition, so an interrupted batch never leaves a
// transition half done. Each logbook record is transactional.
type flow struct {
	project *Project
	c       *Context
	outcome *FileOutcome
	counter snapshot.ProgressFunc
	vcsRef  func(string) string
	l       *zap.Logger
}

func (f *flow) run(ctx context.Context) error {
	switch f.c.Operation {
	case model.EventAdd:
		return f.add(ctx)
	case model.EventCommit:
		return f.commit(ctx)
	case model.EventPush:
		return f.push(ctx)
	case model.EventPull:
		return f.pull(ctx)
	case model.EventRemove:
		return f.remove(ctx)
	default:
		return status.ErrConfiguration.WrapMessage("unknown operation %q", f.c.Operation)
	}
}

func step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return status.ErrInterrupted.Wrap(err)
	}
	return nil
}

func (f *flow) progress(n int64) {
	f.outcome.Bytes += n
	f.counter(n)
}

func (f *flow) isTracked(ctx context.Context) (bool, error) {
	tracked, err := f.project.master.IsTracked(ctx, f.c.Path, f.c.Branch)
	if err != nil {
		return false, status.ErrMasterPersistence.Wrap(err)
	}
	return tracked, nil
}

func (f *flow) requireTracked(ctx context.Context) error {
	tracked, err := f.isTracked(ctx)
	if err != nil {
		return err
	}
	if !tracked {
		return status.ErrNotTracked.WrapMessage("%q on branch %q", f.c.Path, f.c.Branch)
	}
	return nil
}

func (f *flow) appendEvent(ctx context.Context) error {
	if err := step(ctx); err != nil {
		return err
	}
	if err := f.project.master.AppendEvent(ctx, f.c.Event()); err != nil {
		return status.ErrMasterPersistence.Wrap(err)
	}
	return nil
}

func (f *flow) withLogbook(ctx context.Context, fn func(*logbook.File) error) error {
	if err := step(ctx); err != nil {
		return err
	}
	lb, err := f.project.OpenLogbook(ctx, f.c.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := lb.Close(); cerr != nil {
			f.l.Warn("closing logbook", zap.Error(cerr))
		}
	}()
	return fn(lb)
}

func (f *flow) duplicate(ctx context.Context, snap model.Snapshot) (model.Snapshot, error) {
	if err := step(ctx); err != nil {
		return snap, err
	}
	size, err := f.project.snapshots.Duplicate(ctx, f.c.Path, snap, f.progress)
	if err != nil {
		if ctx.Err() != nil {
			return snap, status.ErrInterrupted.Wrap(err)
		}
		return snap, status.ErrIO.Wrap(err)
	}
	snap.Size = size
	return snap, nil
}

// takeSnapshot stages a copy of the working file, then records it in a single logbook transaction
// along with the entities recorded by fn. The copy is promoted only within that transaction, and is
// discarded whenever anything fails.
func (f *flow) takeSnapshot(ctx context.Context, lb *logbook.File, fn func(*logbook.Tx, model.Snapshot) error) (err error) {
	snap, err := f.duplicate(ctx, f.c.Snapshot())
	if err != nil {
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		if derr := f.project.snapshots.Discard(snap); derr != nil {
			f.l.Warn("could not discard snapshot", zap.Stringer("snapshot", snap), zap.Error(derr))
		}
	}()

	if err = step(ctx); err != nil {
		return err
	}
	return lb.Transaction(ctx, func(tx *logbook.Tx) error {
		if _, err := tx.Record(snap); err != nil {
			return err
		}
		if fn != nil {
			if err := fn(tx, snap); err != nil {
				return err
			}
		}
		if err := f.project.snapshots.Promote(snap); err != nil {
			return status.ErrIO.Wrap(err)
		}
		return nil
	})
}

// add takes the first snapshot of an untracked file, then tracks it.
// Already tracked files are skipped.
func (f *flow) add(ctx context.Context) error {
	tracked, err := f.isTracked(ctx)
	if err != nil {
		return err
	}
	if tracked {
		f.l.Info("file already tracked")
		f.outcome.Outcome = OutcomeSkipped
		return nil
	}

	err = f.withLogbook(ctx, func(lb *logbook.File) error {
		return f.takeSnapshot(ctx, lb, nil)
	})
	if err != nil {
		return err
	}

	if err = step(ctx); err != nil {
		return err
	}
	err = f.project.master.TrackWithEvent(ctx, f.c.TrackedFile(), f.c.Event())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, logbook.ErrAlreadyTracked):
		// tracked concurrently by another process: the snapshot stands, the event is still recorded
		f.l.Info("file tracked concurrently")
		if err = f.project.master.AppendEvent(ctx, f.c.Event()); err != nil {
			return status.ErrMasterPersistence.Wrap(err)
		}
		return nil
	default:
		return status.ErrMasterPersistence.Wrap(err)
	}
}

// commit compares the working file with its previous snapshot, takes a new snapshot and
// records the comparison.
func (f *flow) commit(ctx context.Context) error {
	if err := f.requireTracked(ctx); err != nil {
		return err
	}

	var previous model.Snapshot
	err := f.withLogbook(ctx, func(lb *logbook.File) error {
		latest, err := lb.Latest(ctx, f.c.Branch)
		if err != nil {
			if errors.Is(err, logbook.ErrNotFound) {
				return status.ErrNoBaselineSnapshot.WrapMessage("%q on branch %q", f.c.Path, f.c.Branch)
			}
			return err
		}
		if latest.Epoch >= f.c.Epoch {
			return status.ErrStaleEpoch.WrapMessage("latest snapshot of %q is at %d, batch is at %d", f.c.Path, latest.Epoch, f.c.Epoch)
		}
		if previous, err = lb.Previous(ctx, f.c.Branch, f.c.Epoch); err != nil {
			return err
		}

		if err = step(ctx); err != nil {
			return err
		}
		result, err := f.c.Comparison.Compare(ctx,
			compare.Blob{Fs: f.project.fs, Path: f.c.Path},
			compare.Blob{Fs: f.project.fs, Path: f.project.snapshots.Path(previous), Name: f.c.Path},
		)
		if err != nil {
			return status.ErrComparison.Wrap(err)
		}
		changed := compare.Changed(result)
		f.outcome.Changed = changed

		return f.takeSnapshot(ctx, lb, func(tx *logbook.Tx, snap model.Snapshot) error {
			diffID, err := tx.Record(model.DiffResult{
				Technique: f.c.Comparison.Technique(),
				Script:    f.c.Comparison.Script(),
				Result:    result,
				Changed:   changed,
				From:      previous,
				To:        snap,
				Author:    f.c.Author,
			})
			if err != nil {
				return err
			}
			_, err = tx.Record(model.CommitRecord{
				VCSCommit: f.vcsCommit(),
				Message:   f.c.Message,
				From:      previous,
				To:        snap,
				DiffID:    diffID,
				Author:    f.c.Author,
			})
			return err
		})
	})
	if err != nil {
		return err
	}

	f.l.Debug("committed", zap.Int64("previous", previous.Epoch), zap.Bool("changed", f.outcome.Changed))
	return f.appendEvent(ctx)
}

func (f *flow) vcsCommit() string {
	if f.vcsRef == nil {
		return ""
	}
	return f.vcsRef(f.project.root)
}

// push uploads the snapshots selected by the push strategy, among the snapshots recorded in the logbook
func (f *flow) push(ctx context.Context) error {
	if err := f.requireTracked(ctx); err != nil {
		return err
	}

	adapter := f.c.Remote
	return f.withLogbook(ctx, func(lb *logbook.File) error {
		snapshots, err := lb.Snapshots(ctx, f.c.Branch)
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return status.ErrNoBaselineSnapshot.WrapMessage("nothing to push for %q on branch %q", f.c.Path, f.c.Branch)
		}
		epochs := make([]int64, 0, len(snapshots))
		for _, snap := range snapshots {
			epochs = append(epochs, snap.Epoch)
		}

		var (
			diffs  []model.DiffResult
			pushed []model.RemotePointer
		)
		if adapter.Strategy() == model.PushSmart {
			if diffs, err = lb.Diffs(ctx, f.c.Branch); err != nil {
				return err
			}
			if pushed, err = lb.Remotes(ctx, f.c.Branch); err != nil {
				return err
			}
		}

		uploads := remote.Select(adapter.Strategy(), adapter.Storage(), f.c.Path, f.c.Branch, epochs, diffs, pushed)
		for _, upload := range uploads {
			if err := step(ctx); err != nil {
				return err
			}
			ptr, err := adapter.Push(ctx, f.project.snapshots, f.c.SnapshotAt(upload.Epoch), upload.Key, f.progress)
			if err != nil {
				return err
			}
			if _, err = lb.Record(ctx, ptr); err != nil {
				return err
			}
			f.outcome.Pointers = append(f.outcome.Pointers, ptr)
		}
		return f.appendEvent(ctx)
	})
}

// pull downloads the remote copy of a file into the working tree. The file does not need to be tracked.
func (f *flow) pull(ctx context.Context) error {
	if err := step(ctx); err != nil {
		return err
	}
	ptr, err := f.c.Remote.Pull(ctx, f.project.fs, f.c.Snapshot(), model.GetRemoteKey(f.c.Path), f.progress)
	if err != nil {
		return err
	}
	f.outcome.Pointers = append(f.outcome.Pointers, ptr)

	err = f.withLogbook(ctx, func(lb *logbook.File) error {
		_, err := lb.Record(ctx, ptr)
		return err
	})
	if err != nil {
		return err
	}
	return f.appendEvent(ctx)
}

// remove deletes the remote copies of a file. Local snapshots are left untouched.
func (f *flow) remove(ctx context.Context) error {
	if err := f.requireTracked(ctx); err != nil {
		return err
	}

	adapter := f.c.Remote
	var keys []string
	err := f.withLogbook(ctx, func(lb *logbook.File) error {
		pointers, err := lb.Remotes(ctx, f.c.Branch)
		if err != nil {
			return err
		}
		keys = remoteKeys(f.c.Path, adapter.Storage(), pointers)
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := step(ctx); err != nil {
			return err
		}
		if err := adapter.Delete(ctx, key); err != nil {
			return err
		}
	}
	return f.appendEvent(ctx)
}

// remoteKeys lists the keys pushed to some storage, starting with the verbatim key of the file
func remoteKeys(pth string, kind model.StorageKind, pointers []model.RemotePointer) []string {
	key := model.GetRemoteKey(pth)
	keys := []string{key}
	seen := map[string]bool{key: true}
	for _, p := range pointers {
		if p.Direction != model.DirectionPush || p.Storage != kind || seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		keys = append(keys, p.Key)
	}
	return keys
}
