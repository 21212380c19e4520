// Package minio implements a storage.Store on a minio server, or any S3-compatible endpoint.
package minio

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/oneconcern/yap/pkg/storage/status"
	"go.uber.org/zap"
)

var _ storage.Store = &minioFS{}

// Option for the minio store
type Option func(*minioFS)

// Credentials sets static access and secret keys
func Credentials(accessKey, secretKey string) Option {
	return func(m *minioFS) {
		m.accessKey = accessKey
		m.secretKey = secretKey
	}
}

// Secure toggles TLS to reach the endpoint
func Secure(secure bool) Option {
	return func(m *minioFS) {
		m.secure = secure
	}
}

// Region of the bucket
func Region(region string) Option {
	return func(m *minioFS) {
		m.region = region
	}
}

// Prefix prepended to all keys in the bucket
func Prefix(prefix string) Option {
	return func(m *minioFS) {
		m.prefix = strings.TrimLeft(prefix, "/")
	}
}

// Logger for the minio store
func Logger(l *zap.Logger) Option {
	return func(m *minioFS) {
		if l != nil {
			m.l = l
		}
	}
}

type minioFS struct {
	client    *minio.Client
	endpoint  string
	bucket    string
	prefix    string
	region    string
	accessKey string
	secretKey string
	secure    bool
	l         *zap.Logger
}

// New minio store
func New(endpoint, bucket string, opts ...Option) (storage.Store, error) {
	m := &minioFS{
		endpoint: endpoint,
		bucket:   bucket,
		secure:   true,
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(m)
	}
	if endpoint == "" || bucket == "" {
		return nil, status.ErrInvalidResource.WrapMessage("minio store requires an endpoint and a bucket")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(m.accessKey, m.secretKey, ""),
		Secure: m.secure,
		Region: m.region,
	})
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	m.client = client
	return m, nil
}

func (m *minioFS) objectKey(key string) string {
	return m.prefix + key
}

func (m *minioFS) String() string {
	return "minio://" + m.endpoint + "/" + m.bucket + "/" + m.prefix
}

func (m *minioFS) Has(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, m.objectKey(key), minio.StatObjectOptions{})
	if err != nil {
		if isNotExists(err) {
			return false, nil
		}
		return false, toSentinelErrors(err)
	}
	return true, nil
}

func (m *minioFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	// GetObject is lazy: stat the object first to surface missing keys early
	if _, err := m.client.StatObject(ctx, m.bucket, m.objectKey(key), minio.StatObjectOptions{}); err != nil {
		return nil, toSentinelErrors(err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, m.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return obj, nil
}

func (m *minioFS) Put(ctx context.Context, key string, rdr io.Reader, exclusive bool) error {
	if exclusive {
		has, err := m.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists.WrapMessage("key %q", key)
		}
	}
	// unknown size: the client streams a multipart upload
	info, err := m.client.PutObject(ctx, m.bucket, m.objectKey(key), rdr, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return toSentinelErrors(err)
	}
	m.l.Debug("minio upload", zap.String("key", key), zap.Int64("size", info.Size))
	return nil
}

func (m *minioFS) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, m.objectKey(key), minio.RemoveObjectOptions{})
	if err != nil && !isNotExists(err) {
		return toSentinelErrors(err)
	}
	return nil
}

func (m *minioFS) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: m.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, toSentinelErrors(obj.Err)
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, m.prefix))
	}
	return keys, nil
}

func (m *minioFS) Clear(ctx context.Context) error {
	keys, err := m.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := m.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
