// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// This package supports the following backends:
//   - GCS (Google)
//   - S3 (AWS)
//   - minio (and any S3-compatible endpoint)
//   - local file system
//   - badger (embedded key-value store)
//
// Decorators add zstd compression and opentracing instrumentation to any backend.
package storage
