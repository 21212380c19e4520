package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/yap/pkg/model"
	"github.com/oneconcern/yap/pkg/remote"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testVCSRef = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Author = model.Author{Name: "tester", Email: "tester@example.com"}
	cfg.LogLevel = "none"
	return cfg
}

func setupProject(t testing.TB, opts ...Option) *Project {
	t.Helper()
	root := t.TempDir()
	p, err := Open(context.Background(), root, testConfig(), append([]Option{WithVCSRef(func(string) string { return testVCSRef })}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func writeFile(t testing.TB, p *Project, rel, content string) {
	t.Helper()
	pth := filepath.Join(p.Root(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(pth), 0700))
	require.NoError(t, os.WriteFile(pth, []byte(content), 0600))
}

func readFile(t testing.TB, p *Project, rel string) string {
	t.Helper()
	buf, err := os.ReadFile(filepath.Join(p.Root(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(buf)
}

func localRemote(t testing.TB, strategy model.PushStrategy) *remote.Config {
	t.Helper()
	return &remote.Config{
		Storage:  model.StorageLocal,
		Root:     t.TempDir(),
		Strategy: strategy,
	}
}

func smartComparison() *ComparisonConfig {
	return &ComparisonConfig{Technique: model.TechniqueSmart}
}

// run a batch and requires it to complete, though some files may fail
func run(t testing.TB, p *Project, op OperationConfig, paths ...string) *BatchResult {
	t.Helper()
	ctx := context.Background()
	factory, err := NewFactory(ctx, p, paths, "master", op)
	require.NoError(t, err)
	defer func() { _ = factory.Close() }()

	result, err := NewOrchestrator(p).Run(ctx, factory)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func outcomeOf(t testing.TB, result *BatchResult, pth string) FileOutcome {
	t.Helper()
	for _, o := range result.PerFile {
		if o.Path == pth {
			return o
		}
	}
	require.Failf(t, "missing outcome", "no outcome for %q", pth)
	return FileOutcome{}
}

func eventKinds(t testing.TB, p *Project, pth string) []model.EventKind {
	t.Helper()
	events, err := p.History(context.Background(), pth, "master")
	require.NoError(t, err)
	kinds := make([]model.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// epochsOf lists the epochs of the snapshots recorded for a file
func epochsOf(p *Project, pth, branch string) ([]int64, error) {
	ctx := context.Background()
	lb, err := p.OpenLogbook(ctx, pth)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lb.Close() }()

	snapshots, err := lb.Snapshots(ctx, branch)
	if err != nil {
		return nil, err
	}
	epochs := make([]int64, 0, len(snapshots))
	for _, s := range snapshots {
		epochs = append(epochs, s.Epoch)
	}
	return epochs, nil
}

// historyFiles lists the content stored in the history of a file, including staged copies
func historyFiles(t testing.TB, p *Project, pth string) []string {
	t.Helper()
	entries, err := afero.ReadDir(p.Fs(), model.GetHistoryDir(filepath.FromSlash(p.Config().HistoryDir), pth, "master"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
