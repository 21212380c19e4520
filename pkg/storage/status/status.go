// Copyright © 2018 One Concern

// Package status declares the sentinel errors returned by Store implementations.
//
// Providers translate their native API errors into these sentinels, so that callers
// such as the remote adapter may decide whether a failed transfer is worth retrying.
// They live apart from pkg/storage to keep providers free of import cycles.
package status

import "github.com/oneconcern/yap/pkg/errors"

// Object-level outcomes
var (
	// ErrNotExists is returned when reading or deleting a key that holds no object
	ErrNotExists = errors.New("object doesn't exist")

	// ErrExists is returned when writing a key that already holds an object, with overwrite disabled
	ErrExists = errors.New("exists already")

	// ErrObjectTooBig is returned when an object cannot be held in memory
	ErrObjectTooBig = errors.New("object too big to be read into memory")
)

// Resource and access failures. None of these is worth retrying.
var (
	// ErrNotFound is returned when the bucket or directory backing a store cannot be found
	ErrNotFound = errors.New("not found")

	// ErrInvalidResource is returned when a bucket or directory name is rejected by the provider
	ErrInvalidResource = errors.New("invalid storage resource name")

	// ErrUnauthorized is returned when credentials are missing or rejected
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when credentials are valid but lack some permission
	ErrForbidden = errors.New("forbidden")
)

// ErrStorageAPI wraps any other provider failure, e.g. network errors and throttling
var ErrStorageAPI = errors.New("storage API error")
