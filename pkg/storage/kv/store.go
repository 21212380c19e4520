// Package kv implements a storage.Store on an embedded badger key-value database.
//
// Objects are held in memory while transferred: this backend suits small to medium files.
package kv

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v3"
	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/oneconcern/yap/pkg/storage/status"
	"go.uber.org/zap"
)

var _ storage.Store = &kvBadger{}

const (
	objectPrefix = "object:"

	// DefaultMaxObjectSize is the largest object accepted by the store
	DefaultMaxObjectSize = 256 << 20
)

// Option for the badger store
type Option func(*kvBadger)

// InMemory runs badger without persisting anything on disk
func InMemory(enabled bool) Option {
	return func(kv *kvBadger) {
		kv.inMemory = enabled
	}
}

// MaxObjectSize limits the size of stored objects
func MaxObjectSize(size int64) Option {
	return func(kv *kvBadger) {
		if size > 0 {
			kv.maxObjectSize = size
		}
	}
}

// Logger for the badger store
func Logger(l *zap.Logger) Option {
	return func(kv *kvBadger) {
		if l != nil {
			kv.l = l
		}
	}
}

type kvBadger struct {
	*badger.DB
	dir           string
	inMemory      bool
	maxObjectSize int64
	l             *zap.Logger
}

// New opens (or creates) a badger database in dir
func New(dir string, opts ...Option) (storage.Store, error) {
	kv := &kvBadger{
		dir:           dir,
		maxObjectSize: DefaultMaxObjectSize,
		l:             zap.NewNop(),
	}
	for _, apply := range opts {
		apply(kv)
	}

	var options badger.Options
	if kv.inMemory {
		options = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if dir == "" {
			return nil, status.ErrInvalidResource.WrapMessage("badger store requires a directory")
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, status.ErrStorageAPI.Wrap(err)
		}
		options = badger.DefaultOptions(dir)
	}

	db, err := badger.Open(options.WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	kv.DB = db
	return kv, nil
}

func objectKey(key string) []byte {
	return []byte(objectPrefix + key)
}

func (kv *kvBadger) String() string {
	if kv.inMemory {
		return "badger@memory"
	}
	return "badger@" + kv.dir
}

func (kv *kvBadger) Has(_ context.Context, key string) (bool, error) {
	err := kv.DB.View(func(txn *badger.Txn) error {
		_, e := txn.Get(objectKey(key))
		return e
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, status.ErrStorageAPI.Wrap(err)
	}
	return true, nil
}

func (kv *kvBadger) Get(_ context.Context, key string) (io.ReadCloser, error) {
	var value []byte
	err := kv.DB.View(func(txn *badger.Txn) error {
		item, e := txn.Get(objectKey(key))
		if e != nil {
			return e
		}
		value, e = item.ValueCopy(nil)
		return e
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, status.ErrNotExists.WrapMessage("key %q", key)
		}
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	return io.NopCloser(bytes.NewReader(value)), nil
}

func (kv *kvBadger) Put(ctx context.Context, key string, rdr io.Reader, exclusive bool) error {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(rdr, kv.maxObjectSize+1))
	if err != nil {
		return status.ErrStorageAPI.Wrap(err)
	}
	if n > kv.maxObjectSize {
		return status.ErrObjectTooBig.WrapMessage("key %q exceeds %d bytes", key, kv.maxObjectSize)
	}
	value := buf.Bytes()

	err = backoff.Retry(func() error {
		return kv.DB.Update(func(txn *badger.Txn) error {
			if exclusive {
				_, e := txn.Get(objectKey(key))
				if e == nil {
					return backoff.Permanent(status.ErrExists.WrapMessage("key %q", key))
				}
				if !errors.Is(e, badger.ErrKeyNotFound) {
					return backoff.Permanent(e)
				}
			}
			if e := txn.Set(objectKey(key), value); e != nil {
				if errors.Is(e, badger.ErrConflict) {
					return e // retry
				}
				return backoff.Permanent(e)
			}
			return nil
		})
	},
		backoff.WithContext(backoff.NewConstantBackOff(10*time.Millisecond), ctx),
	)
	if err != nil {
		if errors.Is(err, status.ErrExists) {
			return err
		}
		return status.ErrStorageAPI.Wrap(err)
	}
	kv.l.Debug("badger put", zap.String("key", key), zap.Int64("size", n))
	return nil
}

func (kv *kvBadger) Delete(_ context.Context, key string) error {
	err := kv.DB.Update(func(txn *badger.Txn) error {
		return txn.Delete(objectKey(key))
	})
	if err != nil {
		return status.ErrStorageAPI.Wrap(err)
	}
	return nil
}

func (kv *kvBadger) Keys(_ context.Context) ([]string, error) {
	var keys []string
	err := kv.DB.View(func(txn *badger.Txn) error {
		prefix := []byte(objectPrefix)
		iterator := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: false,
			Prefix:         prefix,
		})
		defer iterator.Close()
		for iterator.Seek(prefix); iterator.ValidForPrefix(prefix); iterator.Next() {
			keys = append(keys, string(iterator.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (kv *kvBadger) Clear(_ context.Context) error {
	if err := kv.DB.DropPrefix([]byte(objectPrefix)); err != nil {
		return status.ErrStorageAPI.Wrap(err)
	}
	return nil
}

// Close the badger database
func (kv *kvBadger) Close() error {
	return kv.DB.Close()
}
