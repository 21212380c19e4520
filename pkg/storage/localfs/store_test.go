// Copyright © 2018 One Concern

package localfs

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/oneconcern/yap/pkg/storage/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHas(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()

	has, err := bs.Has(context.Background(), "sixteentons")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "docs/seventeentons.md")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "fifteentons")
	require.NoError(t, err)
	require.False(t, has)

	has, err = bs.Has(context.Background(), "docs")
	require.NoError(t, err)
	require.False(t, has, "a folder is not an object")
}

func TestGet(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()

	rdr, err := bs.Get(context.Background(), "sixteentons")
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "this is the text", string(b))

	rdr, err = bs.Get(context.Background(), "docs/seventeentons.md")
	require.NoError(t, err)
	b, err = io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "this is the text for another thing", string(b))

	_, err = bs.Get(context.Background(), "fifteentons")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotExists))
}

func TestKeys(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()

	keys, err := bs.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/seventeentons.md", "sixteentons"}, keys)
}

func TestDelete(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()

	require.NoError(t, bs.Delete(context.Background(), "docs/seventeentons.md"))
	k, _ := bs.Keys(context.Background())
	assert.Len(t, k, 1)

	require.NoError(t, bs.Delete(context.Background(), "docs/seventeentons.md"), "deleting a missing key is not an error")
}

func TestClear(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()

	require.NoError(t, bs.Clear(context.Background()))
	k, _ := bs.Keys(context.Background())
	require.Empty(t, k)
}

func TestPut(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()

	content := bytes.NewBufferString("here we go once again")
	err := bs.Put(context.Background(), "reports/eighteentons.csv", content, storage.NoOverWrite)
	require.NoError(t, err)

	assertContent(t, bs, "reports/eighteentons.csv", "here we go once again")

	k, _ := bs.Keys(context.Background())
	assert.Len(t, k, 3)

	err = bs.Put(context.Background(), "reports/eighteentons.csv", bytes.NewBufferString("again"), storage.NoOverWrite)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrExists))

	require.NoError(t, bs.Put(context.Background(), "reports/eighteentons.csv", bytes.NewBufferString("again"), storage.OverWrite))
	assertContent(t, bs, "reports/eighteentons.csv", "again")
}

func TestAtomicPut(t *testing.T) {
	fs := afero.NewMemMapFs()
	bs, err := NewAtomic(fs)
	require.NoError(t, err)
	assert.Equal(t, "localfs-atomic", bs.String())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, bs.Put(context.Background(), "docs/a.md", bytes.NewBufferString("# title"), storage.OverWrite))
		}()
	}
	wg.Wait()

	assertContent(t, bs, "docs/a.md", "# title")

	keys, err := bs.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md"}, keys, "the staging area is never listed")

	err = bs.Put(context.Background(), "docs/a.md", bytes.NewBufferString("other"), storage.NoOverWrite)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrExists))

	_, err = bs.Has(context.Background(), nestedPutStageName+"/x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidResource))

	require.NoError(t, bs.Clear(context.Background()))
	keys, err = bs.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
	require.NoError(t, bs.Put(context.Background(), "b.txt", bytes.NewBufferString("b"), storage.OverWrite))
}

func TestString(t *testing.T) {
	dir := t.TempDir()
	bs := New(afero.NewBasePathFs(afero.NewOsFs(), dir))
	assert.Contains(t, bs.String(), "localfs@")
	assert.Equal(t, "localfs", New(afero.NewMemMapFs()).String())
}

func assertContent(t testing.TB, bs storage.Store, key, expected string) {
	t.Helper()
	rdr, err := bs.Get(context.Background(), key)
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, expected, string(b))
}

func setupStore(t testing.TB) (storage.Store, func()) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "sixteentons", []byte("this is the text"), 0600))
	require.NoError(t, fs.MkdirAll("docs", 0700))
	require.NoError(t, afero.WriteFile(fs, "docs/seventeentons.md", []byte("this is the text for another thing"), 0600))

	return New(fs), func() {}
}
