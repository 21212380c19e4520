package minio

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/oneconcern/yap/internal/rand"
	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/oneconcern/yap/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// integration tests run against a live minio server, e.g. YAP_TEST_MINIO_ENDPOINT=127.0.0.1:9000
const (
	endpointEnv  = "YAP_TEST_MINIO_ENDPOINT"
	accessKeyEnv = "YAP_TEST_MINIO_ACCESS_KEY"
	secretKeyEnv = "YAP_TEST_MINIO_SECRET_KEY"
)

func TestToSentinelErrors(t *testing.T) {
	assert.NoError(t, toSentinelErrors(nil))

	for _, toPin := range []struct {
		name     string
		resp     minio.ErrorResponse
		expected error
	}{
		{name: "missing key", resp: minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, expected: status.ErrNotExists},
		{name: "missing bucket", resp: minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}, expected: status.ErrNotFound},
		{name: "bad bucket", resp: minio.ErrorResponse{Code: "InvalidBucketName", StatusCode: 400}, expected: status.ErrInvalidResource},
		{name: "denied", resp: minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, expected: status.ErrForbidden},
		{name: "head not found", resp: minio.ErrorResponse{StatusCode: 404}, expected: status.ErrNotExists},
		{name: "unauthorized", resp: minio.ErrorResponse{StatusCode: 401}, expected: status.ErrUnauthorized},
		{name: "server", resp: minio.ErrorResponse{Code: "InternalError", StatusCode: 500}, expected: status.ErrStorageAPI},
	} {
		fixture := toPin
		t.Run(fixture.name, func(t *testing.T) {
			assert.True(t, errors.Is(toSentinelErrors(fixture.resp), fixture.expected))
		})
	}

	assert.True(t, isNotExists(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}))
	assert.False(t, isNotExists(minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New("127.0.0.1:9000", "")
	assert.True(t, errors.Is(err, status.ErrInvalidResource))
}

func TestStore(t *testing.T) {
	endpoint := os.Getenv(endpointEnv)
	if endpoint == "" {
		t.Skipf("%s is not set: skipping minio store tests", endpointEnv)
	}
	ctx := context.Background()
	bucket := rand.LetterString(15)

	bs, err := New(endpoint, bucket,
		Credentials(os.Getenv(accessKeyEnv), os.Getenv(secretKeyEnv)),
		Secure(false),
		Prefix("project/"),
	)
	require.NoError(t, err)
	client := bs.(*minioFS).client
	require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	defer func() {
		_ = bs.Clear(ctx)
		_ = client.RemoveBucket(ctx, bucket)
	}()

	require.NoError(t, bs.Put(ctx, "docs/a.md", bytes.NewBufferString("# title"), storage.NoOverWrite))
	err = bs.Put(ctx, "docs/a.md", bytes.NewBufferString("# other"), storage.NoOverWrite)
	assert.True(t, errors.Is(err, status.ErrExists))

	rdr, err := bs.Get(ctx, "docs/a.md")
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "# title", string(b))

	_, err = bs.Get(ctx, "docs/b.md")
	assert.True(t, errors.Is(err, status.ErrNotExists))

	keys, err := bs.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md"}, keys)

	require.NoError(t, bs.Delete(ctx, "docs/a.md"))
	require.NoError(t, bs.Delete(ctx, "docs/a.md"))
}
