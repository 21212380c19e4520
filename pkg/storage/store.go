// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
)

const (
	// NoOverWrite asks Put to fail whenever the key exists already
	NoOverWrite = true

	// OverWrite asks Put to replace any existing object
	OverWrite = false

	pipeBufferSize = 32 * 1024
)

// Store implementations know how to write entries to a K/V model.Store.
//
// Typically this is something file system-like. Examples are S3, local FS, NFS, ...
// Implementations of this interface are assumed to be fairly simple.
//
// Get on a missing key returns an error matching status.ErrNotExists.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, bool) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
	Clear(context.Context) error
}

// PipeIO copies a reader to a writer, using a fixed size buffer
func PipeIO(writer io.Writer, reader io.Reader) (int64, error) {
	buf := make([]byte, pipeBufferSize)
	return io.CopyBuffer(writer, reader, buf)
}

// Close releases a store if it holds resources (e.g. an embedded database)
func Close(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
