// Package compressed decorates a storage.Store with zstd compression.
//
// Keys are left untouched: only object payloads are compressed.
package compressed

import (
	"context"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/oneconcern/yap/pkg/storage/status"
)

const defaultLevel = 3

// Option for the compressed store
type Option func(*compressedStore)

// Level sets the zstd compression level (1 to 22, the zstd command line scale)
func Level(level int) Option {
	return func(c *compressedStore) {
		if level > 0 {
			c.level = level
		}
	}
}

type compressedStore struct {
	storage.Store
	level int
}

// New wraps a store so that objects are zstd-compressed at rest
func New(store storage.Store, opts ...Option) storage.Store {
	c := &compressedStore{
		Store: store,
		level: defaultLevel,
	}
	for _, apply := range opts {
		apply(c)
	}
	return c
}

func (c *compressedStore) String() string {
	return "zstd+" + c.Store.String()
}

func (c *compressedStore) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	pr, pw := io.Pipe()
	go func() {
		enc, err := zstd.NewWriter(pw, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.level)))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err = storage.PipeIO(enc, source); err != nil {
			_ = enc.Close()
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(enc.Close())
	}()

	err := c.Store.Put(ctx, key, pr, exclusive)
	// unblock the encoder whenever the store gave up before draining the pipe
	_ = pr.CloseWithError(io.ErrClosedPipe)
	return err
}

type decompressingReader struct {
	*zstd.Decoder
	source io.Closer
}

func (r *decompressingReader) Close() error {
	r.Decoder.Close()
	return r.source.Close()
}

func (c *compressedStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rdr, err := c.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(rdr)
	if err != nil {
		_ = rdr.Close()
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	return &decompressingReader{Decoder: dec, source: rdr}, nil
}

// Close the underlying store, if it needs to
func (c *compressedStore) Close() error {
	return storage.Close(c.Store)
}
