package minio

import (
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/oneconcern/yap/pkg/storage/status"
)

func isNotExists(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket")
}

func toSentinelErrors(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return status.ErrNotExists.Wrap(err)
	case "NoSuchBucket":
		return status.ErrNotFound.Wrap(err)
	case "InvalidBucketName":
		return status.ErrInvalidResource.Wrap(err)
	case "AccessDenied":
		return status.ErrForbidden.Wrap(err)
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return status.ErrNotExists.Wrap(err)
	case http.StatusUnauthorized:
		return status.ErrUnauthorized.Wrap(err)
	case http.StatusForbidden:
		return status.ErrForbidden.Wrap(err)
	default:
		return status.ErrStorageAPI.Wrap(err)
	}
}
