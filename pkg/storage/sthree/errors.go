package sthree

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/storage/status"
)

// filterErrNotExists ignores errors about missing objects or buckets
func filterErrNotExists(err error) error {
	if errors.Is(err, status.ErrNotExists) || errors.Is(err, status.ErrNotFound) {
		return nil
	}
	return err
}

// toSentinelErrors maps S3 error codes to the sentinels of the status package.
//
// See https://docs.aws.amazon.com/AmazonS3/latest/API/ErrorResponses.html#ErrorCodeList
func toSentinelErrors(err error) error {
	if err == nil {
		return nil
	}
	var failure awserr.RequestFailure
	if !errors.As(err, &failure) {
		return status.ErrStorageAPI.Wrap(err)
	}

	switch failure.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound": // minio reports missing objects as NotFound
		return status.ErrNotExists.Wrap(err)
	case s3.ErrCodeNoSuchBucket:
		return status.ErrNotFound.Wrap(err)
	case "InvalidBucketName":
		return status.ErrInvalidResource.Wrap(err)
	}

	switch failure.StatusCode() {
	case 401:
		return status.ErrUnauthorized.Wrap(err)
	case 403:
		return status.ErrForbidden.Wrap(err)
	case 404:
		return status.ErrNotFound.Wrap(err)
	default:
		return status.ErrStorageAPI.Wrap(err)
	}
}
