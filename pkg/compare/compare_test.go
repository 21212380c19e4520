package compare

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlobs(t testing.TB, fs afero.Fs, name, current, previous string) (Blob, Blob) {
	t.Helper()
	require.NoError(t, fs.MkdirAll("cur", 0700))
	require.NoError(t, fs.MkdirAll("prev", 0700))
	require.NoError(t, afero.WriteFile(fs, "cur/"+name, []byte(current), 0600))
	require.NoError(t, afero.WriteFile(fs, "prev/"+name, []byte(previous), 0600))
	return Blob{Fs: fs, Path: "cur/" + name}, Blob{Fs: fs, Path: "prev/" + name}
}

func TestHash(t *testing.T) {
	fs := afero.NewMemMapFs()
	cur, prev := writeBlobs(t, fs, "a.txt", "hello", "hello")
	e, err := New(model.TechniqueHash)
	require.NoError(t, err)

	result, err := e.Compare(context.Background(), cur, prev)
	require.NoError(t, err)
	assert.False(t, Changed(result))
	h := result[hashKey].(model.Tree)
	assert.Equal(t, hashAlgorithm, h["algorithm"])
	assert.Equal(t, h["current"], h["previous"])
	assert.Len(t, h["current"], 64)

	cur, prev = writeBlobs(t, fs, "b.txt", "hello", "world")
	result, err = e.Compare(context.Background(), cur, prev)
	require.NoError(t, err)
	assert.True(t, Changed(result))
	assert.Equal(t, false, result[hashKey].(model.Tree)["equal"])
}

func TestUnreadableSnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	cur, _ := writeBlobs(t, fs, "a.txt", "hello", "hello")
	e, err := New(model.TechniqueSmart)
	require.NoError(t, err)

	_, err = e.Compare(context.Background(), cur, Blob{Fs: fs, Path: "missing/a.txt"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSnapshotUnreadable))
}

func TestSmartDispatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()
	smart, err := New(model.TechniqueSmart)
	require.NoError(t, err)
	hash, err := New(model.TechniqueHash)
	require.NoError(t, err)
	similarity, err := New(model.TechniqueSimilarity)
	require.NoError(t, err)

	t.Run("markdown", func(t *testing.T) {
		cur, prev := writeBlobs(t, fs, "doc.md", "# Title\n\nhello\nworld\n", "# Title\n\nhello\n")
		h, err := hash.Compare(ctx, cur, prev)
		require.NoError(t, err)
		s, err := similarity.Compare(ctx, cur, prev)
		require.NoError(t, err)
		result, err := smart.Compare(ctx, cur, prev)
		require.NoError(t, err)

		assert.Equal(t, MergeTrees(h, s), result)
		assert.Contains(t, result, hashKey)
		assert.Contains(t, result, similarityKey)
	})

	t.Run("text", func(t *testing.T) {
		cur, prev := writeBlobs(t, fs, "notes.txt", "hello\nworld\n", "hello\n")
		h, err := hash.Compare(ctx, cur, prev)
		require.NoError(t, err)
		result, err := smart.Compare(ctx, cur, prev)
		require.NoError(t, err)

		assert.Equal(t, h, result)
		assert.NotContains(t, result, similarityKey)
	})

	t.Run("columnar falls back to hash", func(t *testing.T) {
		cur, prev := writeBlobs(t, fs, "data.parquet", "PAR1 new", "PAR1 old")
		h, err := hash.Compare(ctx, cur, prev)
		require.NoError(t, err)
		result, err := similarity.Compare(ctx, cur, prev)
		require.NoError(t, err)
		assert.Equal(t, h, result)
	})
}

func TestMarkdownSimilarity(t *testing.T) {
	fs := afero.NewMemMapFs()
	cur, prev := writeBlobs(t, fs, "README.md",
		"# Title\n\nhello\nworld\n\n## Usage\n",
		"# Title\n\nhello\n",
	)

	result, err := markdownComparator{}.Compare(context.Background(), cur, prev)
	require.NoError(t, err)
	assert.True(t, Changed(result))

	sim := result[similarityKey].(model.Tree)
	assert.Equal(t, "markdown", sim["kind"])
	assert.Equal(t, 3, sim["lines_added"])
	assert.Equal(t, 0, sim["lines_removed"])
	assert.Equal(t, []string{"## Usage"}, sim["sections_added"])
	assert.Equal(t, []string{}, sim["sections_removed"])
	r := sim["ratio"].(float64)
	assert.True(t, r > 0 && r < 1, "ratio: %v", r)

	cur, prev = writeBlobs(t, fs, "same.md", "# A\ntext\n", "# A\ntext\n")
	result, err = markdownComparator{}.Compare(context.Background(), cur, prev)
	require.NoError(t, err)
	assert.False(t, Changed(result))
	assert.Equal(t, 1.0, result[similarityKey].(model.Tree)["ratio"])
}

func TestHeadings(t *testing.T) {
	text := "# One\nplain\n```\n# not a heading\n```\n##Two\n### Three\n####### seven\n"
	assert.Equal(t, []string{"# One", "### Three"}, headings(text))
}

func TestTabularSimilarity(t *testing.T) {
	fs := afero.NewMemMapFs()
	cur, prev := writeBlobs(t, fs, "data.csv",
		"id,name,age\n1,a\n2,c\n3,d\n",
		"id,name\n1,a\n2,b\n",
	)

	result, err := tabularComparator{}.Compare(context.Background(), cur, prev)
	require.NoError(t, err)
	assert.True(t, Changed(result))

	sim := result[similarityKey].(model.Tree)
	assert.Equal(t, "tabular", sim["kind"])
	assert.Equal(t, []string{"age"}, sim["columns_added"])
	assert.Equal(t, []string{}, sim["columns_removed"])
	assert.Equal(t, 2, sim["rows_previous"])
	assert.Equal(t, 3, sim["rows_current"])
	assert.Equal(t, 1, sim["rows_added"])
	assert.Equal(t, 0, sim["rows_removed"])
	assert.Equal(t, 1, sim["rows_modified"])

	cur, prev = writeBlobs(t, fs, "data.tsv", "a\tb\n1\t2\n", "a\tb\n1\t2\n")
	result, err = tabularComparator{}.Compare(context.Background(), cur, prev)
	require.NoError(t, err)
	assert.False(t, Changed(result))
	assert.Equal(t, 1.0, result[similarityKey].(model.Tree)["ratio"])
}

func TestRegistryDetect(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := DefaultRegistry()

	for name, expected := range map[string]ContentType{
		"a.md":         ContentMarkdown,
		"b.MARKDOWN":   ContentMarkdown,
		"c.csv":        ContentTabular,
		"d.tsv":        ContentTabular,
		"e.parquet":    ContentColumnar,
		"f.txt":        ContentUnknown,
		"g.dat":        ContentUnknown,
		"no-extension": ContentTabular,
	} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("a,b,c\n1,2,3\n4,5,6\n"), 0600))
		assert.Equal(t, expected, r.Detect(Blob{Fs: fs, Path: name}), name)
	}

	_, ok := r.Lookup(ContentColumnar)
	assert.False(t, ok)
	_, ok = r.Lookup(ContentMarkdown)
	assert.True(t, ok)

	r.Register(ContentColumnar, hashComparator{})
	_, ok = r.Lookup(ContentColumnar)
	assert.True(t, ok)
}

func TestNewEngine(t *testing.T) {
	_, err := New(model.TechniqueCustom)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingComparisonScript))

	_, err = New(model.Technique("fuzzy"))
	assert.True(t, errors.Is(err, ErrUnknownTechnique))

	e, err := New(model.TechniqueCustom, Script("/bin/true"))
	require.NoError(t, err)
	assert.Equal(t, model.TechniqueCustom, e.Technique())
	assert.Equal(t, "/bin/true", e.Script())
}

func writeScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	pth := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(pth, []byte("#!/bin/sh\n"+body+"\n"), 0700)) //nolint:gosec
	return pth
}

func TestCustomScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a posix shell")
	}
	dir := t.TempDir()
	fs := afero.NewBasePathFs(afero.NewOsFs(), dir)
	ctx := context.Background()
	cur, prev := writeBlobs(t, fs, "a.txt", "new", "old")

	t.Run("json output", func(t *testing.T) {
		script := writeScript(t, dir, "json.sh", `printf '{"current":"%s","previous":"%s","score":0.5}' "$1" "$2"`)
		e, err := New(model.TechniqueCustom, Script(script))
		require.NoError(t, err)

		result, err := e.Compare(ctx, cur, prev)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "cur", "a.txt"), result["current"])
		assert.Equal(t, filepath.Join(dir, "prev", "a.txt"), result["previous"])
		assert.Equal(t, 0.5, result["score"])
	})

	t.Run("raw output", func(t *testing.T) {
		script := writeScript(t, dir, "raw.sh", `echo "3 lines differ"`)
		e, err := New(model.TechniqueCustom, Script(script))
		require.NoError(t, err)

		result, err := e.Compare(ctx, cur, prev)
		require.NoError(t, err)
		assert.Equal(t, model.Tree{outputKey: "3 lines differ"}, result)
		assert.True(t, Changed(result))
	})

	t.Run("failure", func(t *testing.T) {
		script := writeScript(t, dir, "fail.sh", "echo boom >&2\nexit 3")
		e, err := New(model.TechniqueCustom, Script(script))
		require.NoError(t, err)

		_, err = e.Compare(ctx, cur, prev)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrComparisonScriptFailed))

		var scriptErr *ScriptError
		require.True(t, errors.As(err, &scriptErr))
		assert.Equal(t, 3, scriptErr.ExitStatus)
		assert.Equal(t, "boom", scriptErr.Stderr)
		assert.Equal(t, script, scriptErr.Script)
	})

	t.Run("missing script", func(t *testing.T) {
		e, err := New(model.TechniqueCustom, Script(filepath.Join(dir, "nowhere.sh")))
		require.NoError(t, err)

		_, err = e.Compare(ctx, cur, prev)
		require.Error(t, err)
		var scriptErr *ScriptError
		require.True(t, errors.As(err, &scriptErr))
		assert.Equal(t, -1, scriptErr.ExitStatus)
	})
}

func TestCompareCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	cur, prev := writeBlobs(t, fs, "a.md", "a", "b")
	e, err := New(model.TechniqueSmart)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Compare(ctx, cur, prev)
	assert.ErrorIs(t, err, context.Canceled)
}
