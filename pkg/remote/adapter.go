package remote

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/oneconcern/yap/pkg/snapshot"
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/oneconcern/yap/pkg/storage/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// DefaultRetries is the number of times a failed transfer is retried
	DefaultRetries = 3

	defaultInitialInterval = 200 * time.Millisecond
)

// Option for the remote adapter
type Option func(*Adapter)

// Logger for the remote adapter
func Logger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.l = l
		}
	}
}

// Retries sets how many times a failed transfer is retried. Zero disables retries.
func Retries(n uint64) Option {
	return func(a *Adapter) {
		a.retries = n
	}
}

// InitialInterval between two attempts. Intervals grow exponentially.
func InitialInterval(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.initialInterval = d
		}
	}
}

// Adapter performs push, pull and delete operations on a storage provider
type Adapter struct {
	store           storage.Store
	kind            model.StorageKind
	strategy        model.PushStrategy
	retries         uint64
	initialInterval time.Duration
	l               *zap.Logger
}

// NewAdapter for a store. Pointers produced by the adapter are tagged with the storage kind and push strategy.
func NewAdapter(store storage.Store, kind model.StorageKind, strategy model.PushStrategy, opts ...Option) *Adapter {
	a := &Adapter{
		store:           store,
		kind:            kind,
		strategy:        strategy,
		retries:         DefaultRetries,
		initialInterval: defaultInitialInterval,
		l:               zap.NewNop(),
	}
	for _, apply := range opts {
		apply(a)
	}
	return a
}

// Storage kind of the underlying provider
func (a *Adapter) Storage() model.StorageKind {
	return a.kind
}

// Strategy applied on push
func (a *Adapter) Strategy() model.PushStrategy {
	return a.strategy
}

// Store used by the adapter
func (a *Adapter) Store() storage.Store {
	return a.store
}

func (a *Adapter) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.initialInterval
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}
		if isPermanent(ctx, err) {
			return backoff.Permanent(err)
		}
		a.l.Debug("remote operation failed, retrying", zap.Error(err))
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, a.retries), ctx))
}

func isPermanent(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, status.ErrNotExists) ||
		errors.Is(err, status.ErrNotFound) ||
		errors.Is(err, status.ErrForbidden) ||
		errors.Is(err, status.ErrUnauthorized) ||
		errors.Is(err, status.ErrInvalidResource) ||
		errors.Is(err, status.ErrObjectTooBig) ||
		errors.Is(err, status.ErrExists)
}

// Push uploads a snapshot under some key.
//
// Progress is reported once the transfer succeeds, so that retried attempts are not counted twice.
func (a *Adapter) Push(ctx context.Context, snaps *snapshot.Store, snap model.Snapshot, key string, progress snapshot.ProgressFunc) (model.RemotePointer, error) {
	l := a.l.With(zap.String("path", snap.Path), zap.String("key", key), zap.Stringer("store", a.store))

	var size int64
	err := a.retry(ctx, func() error {
		file, err := snaps.Open(snap)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer file.Close()

		counter := &countingReader{Reader: file}
		if err := a.store.Put(ctx, key, counter, storage.OverWrite); err != nil {
			return err
		}
		size = counter.n
		return nil
	})
	if err != nil {
		return model.RemotePointer{}, transferFailed(OpPush, key, err)
	}
	if progress != nil {
		progress(size)
	}

	l.Debug("pushed snapshot", zap.Int64("epoch", snap.Epoch), zap.Int64("size", size))
	snap.Size = size
	return a.pointer(snap, key, model.DirectionPush), nil
}

// Pull downloads the object stored under key to the working path of a file, overwriting any existing file.
func (a *Adapter) Pull(ctx context.Context, fs afero.Fs, snap model.Snapshot, key string, progress snapshot.ProgressFunc) (model.RemotePointer, error) {
	l := a.l.With(zap.String("path", snap.Path), zap.String("key", key), zap.Stringer("store", a.store))

	if exists, _ := afero.Exists(fs, snap.Path); exists {
		l.Info("local file already exists and will be overwritten")
	}
	if err := fs.MkdirAll(filepath.Dir(snap.Path), 0700); err != nil {
		return model.RemotePointer{}, transferFailed(OpPull, key, err)
	}

	var size int64
	err := a.retry(ctx, func() error {
		rdr, err := a.store.Get(ctx, key)
		if err != nil {
			return err
		}
		defer rdr.Close()

		file, err := fs.OpenFile(snap.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return backoff.Permanent(err)
		}
		n, err := storage.PipeIO(file, rdr)
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		size = n
		return nil
	})
	if err != nil {
		return model.RemotePointer{}, transferFailed(OpPull, key, err)
	}
	if progress != nil {
		progress(size)
	}

	l.Debug("pulled file", zap.Int64("size", size))
	snap.Size = size
	return a.pointer(snap, key, model.DirectionPull), nil
}

// Delete the object stored under key. Deleting a missing object is not an error.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	err := a.retry(ctx, func() error {
		return a.store.Delete(ctx, key)
	})
	if err != nil {
		if errors.Is(err, status.ErrNotExists) {
			a.l.Info("remote object already deleted", zap.String("key", key))
			return nil
		}
		return transferFailed(OpDelete, key, err)
	}
	a.l.Debug("deleted remote object", zap.String("key", key))
	return nil
}

func (a *Adapter) pointer(snap model.Snapshot, key string, direction model.Direction) model.RemotePointer {
	return model.RemotePointer{
		Snapshot:  snap,
		Storage:   a.kind,
		Strategy:  a.strategy,
		Key:       key,
		Direction: direction,
		Timestamp: model.NewEpoch(),
	}
}

// countingReader counts the bytes read during one attempt
type countingReader struct {
	io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.Reader.Read(p)
	c.n += int64(n)
	return n, err
}
