// Copyright © 2018 One Concern

// Package gcs implements a storage.Store on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"io"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/oneconcern/yap/pkg/storage/status"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var _ storage.Store = &gcs{}

type gcs struct {
	client         *gcsStorage.Client
	readOnlyClient *gcsStorage.Client
	bucket         string
	prefix         string
	credentialFile string
	l              *zap.Logger
}

func defaultGCS(bucket string) *gcs {
	return &gcs{
		bucket: bucket,
		l:      zap.NewNop(),
	}
}

// New builds a store on a GCS bucket
func New(ctx context.Context, bucket string, opts ...Option) (storage.Store, error) {
	googleStore := defaultGCS(bucket)
	for _, apply := range opts {
		apply(googleStore)
	}
	if bucket == "" {
		return nil, status.ErrInvalidResource.WrapMessage("gcs store requires a bucket")
	}

	clientOptions := func(scope string) []option.ClientOption {
		o := []option.ClientOption{option.WithScopes(scope)}
		if googleStore.credentialFile != "" {
			o = append(o, option.WithCredentialsFile(googleStore.credentialFile))
		}
		return o
	}

	var err error
	googleStore.readOnlyClient, err = gcsStorage.NewClient(ctx, clientOptions(gcsStorage.ScopeReadOnly)...)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	googleStore.client, err = gcsStorage.NewClient(ctx, clientOptions(gcsStorage.ScopeFullControl)...)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return googleStore, nil
}

func (g *gcs) String() string {
	return "gcs://" + g.bucket + "/" + g.prefix
}

func (g *gcs) object(client *gcsStorage.Client, key string) *gcsStorage.ObjectHandle {
	return client.Bucket(g.bucket).Object(g.prefix + key)
}

func (g *gcs) Has(ctx context.Context, key string) (bool, error) {
	_, err := g.object(g.readOnlyClient, key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcsStorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, toSentinelErrors(err)
	}
	return true, nil
}

func (g *gcs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectReader, err := g.object(g.readOnlyClient, key).NewReader(ctx)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return objectReader, nil
}

func (g *gcs) Put(ctx context.Context, key string, reader io.Reader, exclusive bool) error {
	obj := g.object(g.client, key)
	if exclusive {
		obj = obj.If(gcsStorage.Conditions{DoesNotExist: true})
	}
	writer := obj.NewWriter(ctx)
	written, err := storage.PipeIO(writer, reader)
	if err != nil {
		_ = writer.Close()
		return toSentinelErrors(err)
	}
	if err = writer.Close(); err != nil {
		return toSentinelErrors(err)
	}
	g.l.Debug("gcs upload", zap.String("key", key), zap.Int64("size", written))
	return nil
}

func (g *gcs) Delete(ctx context.Context, key string) error {
	err := g.object(g.client, key).Delete(ctx)
	if errors.Is(err, gcsStorage.ErrObjectNotExist) {
		return nil
	}
	return toSentinelErrors(err)
}

func (g *gcs) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	objectsIterator := g.readOnlyClient.Bucket(g.bucket).Objects(ctx, &gcsStorage.Query{Prefix: g.prefix})
	for {
		attrs, err := objectsIterator.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, toSentinelErrors(err)
		}
		keys = append(keys, attrs.Name[len(g.prefix):])
	}
	return keys, nil
}

func (g *gcs) Clear(ctx context.Context) error {
	keys, err := g.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := g.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Close the underlying GCS clients
func (g *gcs) Close() error {
	if err := g.readOnlyClient.Close(); err != nil {
		return err
	}
	return g.client.Close()
}
