package core

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/yap/pkg/core/status"
	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCombinations(t *testing.T) {
	p := setupProject(t)
	ctx := context.Background()
	target := localRemote(t, model.PushLast)

	for _, tc := range []struct {
		name string
		op   OperationConfig
	}{
		{name: "both", op: OperationConfig{Operation: model.EventPush, Comparison: smartComparison(), Remote: target}},
		{name: "commit without comparison", op: OperationConfig{Operation: model.EventCommit}},
		{name: "commit with remote", op: OperationConfig{Operation: model.EventCommit, Remote: target}},
		{name: "push without remote", op: OperationConfig{Operation: model.EventPush}},
		{name: "pull with comparison", op: OperationConfig{Operation: model.EventPull, Comparison: smartComparison()}},
		{name: "add with remote", op: OperationConfig{Operation: model.EventAdd, Remote: target}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFactory(ctx, p, []string{"a.txt"}, "master", tc.op)
			require.Error(t, err)
			assert.True(t, errors.Is(err, status.ErrUnsupportedContextCombination))
		})
	}

	_, err := NewFactory(ctx, p, []string{"a.txt"}, "master", OperationConfig{Operation: "Merge"})
	assert.True(t, errors.Is(err, status.ErrConfiguration))
}

func TestFactoryMissingScript(t *testing.T) {
	p := setupProject(t)
	_, err := NewFactory(context.Background(), p, []string{"a.txt"}, "master", OperationConfig{
		Operation:  model.EventCommit,
		Comparison: &ComparisonConfig{Technique: model.TechniqueCustom},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConfiguration))
	assert.True(t, errors.Is(err, status.ErrMissingComparisonScript))
}

func TestFactoryPaths(t *testing.T) {
	p := setupProject(t)
	ctx := context.Background()
	writeFile(t, p, "dir/a.txt", "a")
	writeFile(t, p, "dir/sub/b.txt", "b")

	_, err := NewFactory(ctx, p, []string{filepath.Join(filepath.Dir(p.Root()), "elsewhere.txt")}, "master", OperationConfig{Operation: model.EventAdd})
	assert.True(t, errors.Is(err, status.ErrConfiguration))
	_, err = NewFactory(ctx, p, []string{"../elsewhere.txt"}, "master", OperationConfig{Operation: model.EventAdd})
	assert.True(t, errors.Is(err, status.ErrConfiguration))

	factory, err := NewFactory(ctx, p, []string{
		filepath.Join(p.Root(), "dir"),
		"dir/a.txt",
		"missing.txt",
		model.DefaultMasterLogbook,
	}, "", OperationConfig{Operation: model.EventAdd})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultBranch, factory.Branch())

	var paths []string
	for {
		c, err := factory.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, factory.Epoch(), c.Epoch)
		assert.Equal(t, "tester", c.Author.Name)
		paths = append(paths, c.Path)
	}
	// breadth-first, without duplicates, and non-existing inputs are kept
	assert.Equal(t, []string{"dir/a.txt", "missing.txt", "dir/sub/b.txt"}, paths)

	_, err = factory.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

// lockedFs fails to open some directory
type lockedFs struct {
	afero.Fs
	locked string
}

func (l lockedFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == l.locked {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return l.Fs.Open(name)
}

func TestDirectoryUnreadable(t *testing.T) {
	root := t.TempDir()
	fs := lockedFs{Fs: afero.NewBasePathFs(afero.NewOsFs(), root), locked: "locked"}
	p, err := Open(context.Background(), root, testConfig(), WithFs(fs))
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	writeFile(t, p, "locked/a.txt", "a")
	writeFile(t, p, "open/b.txt", "b")

	ctx := context.Background()
	factory, err := NewFactory(ctx, p, []string{"locked", "open"}, "master", OperationConfig{Operation: model.EventAdd})
	require.NoError(t, err)

	_, err = NewOrchestrator(p).Run(ctx, factory)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrDirectoryUnreadable))
}

func TestInterrupted(t *testing.T) {
	p := setupProject(t)
	writeFile(t, p, "a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	factory, err := NewFactory(ctx, p, []string{"a.txt"}, "master", OperationConfig{Operation: model.EventAdd})
	require.NoError(t, err)
	cancel()

	result, err := NewOrchestrator(p).Run(ctx, factory)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInterrupted))
	assert.Empty(t, result.PerFile)

	tracked, err := p.ListTracked(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tracked)
}

func TestUnboundedConcurrency(t *testing.T) {
	p := setupProject(t, Concurrency(-1))
	writeFile(t, p, "a.txt", "a")
	writeFile(t, p, "b.txt", "b")

	result := run(t, p, OperationConfig{Operation: model.EventAdd}, "a.txt", "b.txt")
	require.NoError(t, result.Err())
	assert.Equal(t, 2, result.Count(OutcomeDone))
}
