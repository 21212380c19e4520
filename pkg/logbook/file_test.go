package logbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = model.Author{Name: "Ada", Email: "ada@example.com"}

func setupFile(t testing.TB, trackedPath string) (*File, string, func()) {
	t.Helper()
	root := t.TempDir()
	f, err := OpenFile(context.Background(), root, trackedPath)
	require.NoError(t, err)
	return f, root, func() {
		require.NoError(t, f.Close())
	}
}

func snapshotAt(epoch int64) model.Snapshot {
	return model.Snapshot{Path: "docs/a.md", Branch: "main", Epoch: epoch, Author: testAuthor}
}

func TestOpenFileIdempotent(t *testing.T) {
	f, root, cleanup := setupFile(t, "docs/a.md")
	defer cleanup()
	ctx := context.Background()

	assert.Equal(t, filepath.Join(root, "docs", "a.md.db"), f.Path())
	_, err := os.Stat(f.Path())
	require.NoError(t, err)

	_, err = f.Record(ctx, snapshotAt(10))
	require.NoError(t, err)

	var version int
	require.NoError(t, f.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, schemaVersion, version)

	// re-initializing keeps the existing content
	require.NoError(t, f.EnsureSchema(ctx))
	again, err := OpenFile(ctx, root, "docs/a.md")
	require.NoError(t, err)
	defer func() { _ = again.Close() }()

	snapshots, err := again.Snapshots(ctx, "main")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, snapshotAt(10), snapshots[0])
}

func TestRecordSnapshots(t *testing.T) {
	f, _, cleanup := setupFile(t, "docs/a.md")
	defer cleanup()
	ctx := context.Background()

	for _, epoch := range []int64{30, 10, 20} {
		s := snapshotAt(epoch)
		_, err := f.Record(ctx, &s)
		require.NoError(t, err)
	}
	other := snapshotAt(5)
	other.Branch = "dev"
	_, err := f.Record(ctx, other)
	require.NoError(t, err)

	snapshots, err := f.Snapshots(ctx, "main")
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, int64(10), snapshots[0].Epoch)
	assert.Equal(t, int64(30), snapshots[2].Epoch)

	_, err = f.Record(ctx, snapshotAt(10))
	require.Error(t, err, "a snapshot is recorded once")
	assert.True(t, errors.Is(err, ErrPersistence))
}

func TestLatestAndPrevious(t *testing.T) {
	f, _, cleanup := setupFile(t, "docs/a.md")
	defer cleanup()
	ctx := context.Background()

	_, err := f.Latest(ctx, "main")
	assert.True(t, errors.Is(err, ErrNotFound))

	for _, epoch := range []int64{20, 10, 30} {
		_, err = f.Record(ctx, snapshotAt(epoch))
		require.NoError(t, err)
	}

	latest, err := f.Latest(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, snapshotAt(30), latest)

	for _, toPin := range []struct {
		epoch, expected int64
	}{
		{epoch: 30, expected: 20},
		{epoch: 25, expected: 20},
		{epoch: 40, expected: 30},
		{epoch: 11, expected: 10},
	} {
		prev, err := f.Previous(ctx, "main", toPin.epoch)
		require.NoError(t, err)
		assert.Equal(t, toPin.expected, prev.Epoch, "previous of %d", toPin.epoch)
	}

	_, err = f.Previous(ctx, "main", 10)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.Previous(ctx, "dev", 30)
	assert.True(t, errors.Is(err, ErrNotFound), "branches have separate histories")
}

func TestTransaction(t *testing.T) {
	f, _, cleanup := setupFile(t, "docs/a.md")
	defer cleanup()
	ctx := context.Background()
	failure := errors.New("promotion failed")

	err := f.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.Record(snapshotAt(10)); err != nil {
			return err
		}
		diffID, err := tx.Record(model.DiffResult{Technique: model.TechniqueHash, Result: model.Tree{}, From: snapshotAt(5), To: snapshotAt(10)})
		if err != nil {
			return err
		}
		if _, err = tx.Record(model.CommitRecord{From: snapshotAt(5), To: snapshotAt(10), DiffID: diffID}); err != nil {
			return err
		}
		return failure
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure), "errors of the caller are passed through")
	assert.False(t, errors.Is(err, ErrPersistence))

	snapshots, err := f.Snapshots(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, snapshots, "nothing is recorded when the transaction fails")
	diffs, err := f.Diffs(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, diffs)

	err = f.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.Record(snapshotAt(10))
		return err
	})
	require.NoError(t, err)
	snapshots, err = f.Snapshots(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}

func TestRecordDiffAndCommit(t *testing.T) {
	f, _, cleanup := setupFile(t, "docs/a.md")
	defer cleanup()
	ctx := context.Background()

	diff := model.DiffResult{
		Technique: model.TechniqueSmart,
		Result:    model.Tree{"changed": true, "hash": model.Tree{"current": "abc", "previous": "def"}},
		Changed:   true,
		From:      snapshotAt(10),
		To:        snapshotAt(20),
		Author:    testAuthor,
	}
	diffID, err := f.Record(ctx, diff)
	require.NoError(t, err)
	require.NotZero(t, diffID)

	commitID, err := f.Record(ctx, &model.CommitRecord{
		VCSCommit: "8b0c1f2",
		Message:   "update the docs",
		From:      snapshotAt(10),
		To:        snapshotAt(20),
		DiffID:    diffID,
		Author:    testAuthor,
	})
	require.NoError(t, err)
	require.NotZero(t, commitID)

	diffs, err := f.Diffs(ctx, "main")
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, diffID, diffs[0].ID)
	assert.Equal(t, model.TechniqueSmart, diffs[0].Technique)
	assert.True(t, diffs[0].Changed)
	assert.Equal(t, int64(10), diffs[0].From.Epoch)
	assert.Equal(t, int64(20), diffs[0].To.Epoch)
	assert.Equal(t, "docs/a.md", diffs[0].To.Path)
	assert.Equal(t, testAuthor, diffs[0].Author)
	assert.Equal(t, true, diffs[0].Result["changed"])
	assert.Equal(t, map[string]interface{}{"current": "abc", "previous": "def"}, diffs[0].Result["hash"])

	commits, err := f.Commits(ctx, "main")
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "update the docs", commits[0].Message)
	assert.Equal(t, "8b0c1f2", commits[0].VCSCommit)
	assert.Equal(t, diffID, commits[0].DiffID)

	_, err = f.Record(ctx, model.CommitRecord{To: snapshotAt(30), DiffID: 4242})
	require.Error(t, err, "a commit record refers to an existing diff result")
	assert.True(t, errors.Is(err, ErrPersistence))
}

func TestRecordRemotes(t *testing.T) {
	f, _, cleanup := setupFile(t, "docs/a.md")
	defer cleanup()
	ctx := context.Background()

	pointer := model.RemotePointer{
		Snapshot:  snapshotAt(20),
		Storage:   model.StorageLocal,
		Strategy:  model.PushLast,
		Key:       "docs/a.md",
		Direction: model.DirectionPush,
		Timestamp: 42,
	}
	_, err := f.Record(ctx, pointer)
	require.NoError(t, err)

	pointers, err := f.Remotes(ctx, "main")
	require.NoError(t, err)
	require.Len(t, pointers, 1)
	assert.Equal(t, "docs/a.md", pointers[0].Key)
	assert.Equal(t, model.DirectionPush, pointers[0].Direction)
	assert.Equal(t, int64(20), pointers[0].Snapshot.Epoch)
	assert.Equal(t, model.StorageLocal, pointers[0].Storage)

	pointer.Direction = "sideways"
	_, err = f.Record(ctx, pointer)
	require.Error(t, err)

	empty, err := f.Remotes(ctx, "dev")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecordUnsupported(t *testing.T) {
	f, _, cleanup := setupFile(t, "a.txt")
	defer cleanup()

	_, err := f.Record(context.Background(), "not an entity")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedEntity))
}
