// Package snapshot maintains byte-identical copies of tracked files.
//
// Snapshots live under history_root/<path>/<branch>/<epoch>. Copies are staged next to their
// final location and promoted once recorded.
package snapshot

import (
	"context"
	"io"
	"os"

	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ChunkSize is the size of the buffer used to stream copies
const ChunkSize = 32 * 1024

const stagingSuffix = ".partial"

var (
	// ErrNotFound means that no snapshot matches the request
	ErrNotFound = errors.New("snapshot not found")

	// ErrIO wraps any failure to read or write files
	ErrIO = errors.New("snapshot I/O error")
)

// ProgressFunc receives the number of bytes copied by the last chunk
type ProgressFunc func(int64)

// Option for the snapshot store
type Option func(*Store)

// Logger for the snapshot store
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.l = l
		}
	}
}

// Store of snapshots. It is safe for concurrent use on distinct snapshots.
type Store struct {
	fs   afero.Fs
	root string
	l    *zap.Logger
}

// New snapshot store on fs, rooted at historyRoot
func New(fs afero.Fs, historyRoot string, opts ...Option) *Store {
	s := &Store{
		fs:   fs,
		root: historyRoot,
		l:    zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Path to the content of some snapshot
func (s *Store) Path(snap model.Snapshot) string {
	return model.GetHistoryPath(s.root, snap.Path, snap.Branch, snap.Epoch)
}

func (s *Store) stagingPath(snap model.Snapshot) string {
	return s.Path(snap) + stagingSuffix
}

// Duplicate copies the working file at source into a staging location for snap.
//
// The copy is streamed in chunks of ChunkSize bytes, and progress is reported after each chunk.
// The returned size is the number of bytes copied. A staged snapshot is not visible under Path
// until it is promoted.
func (s *Store) Duplicate(ctx context.Context, source string, snap model.Snapshot, progress ProgressFunc) (int64, error) {
	src, err := s.fs.Open(source)
	if err != nil {
		return 0, ErrIO.Wrap(err).WrapMessage("opening %q", source)
	}
	defer src.Close()

	target := s.stagingPath(snap)
	if err = s.fs.MkdirAll(model.GetHistoryDir(s.root, snap.Path, snap.Branch), 0700); err != nil {
		return 0, ErrIO.Wrap(err).WrapMessage("creating history for %q", snap.Path)
	}
	dst, err := s.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return 0, ErrIO.Wrap(err).WrapMessage("creating snapshot %v", snap)
	}

	written, err := copyChunks(ctx, dst, src, progress)
	if err != nil {
		_ = dst.Close()
		_ = s.fs.Remove(target)
		return written, ErrIO.Wrap(err).WrapMessage("copying %q to snapshot %v", source, snap)
	}
	if err = dst.Close(); err != nil {
		_ = s.fs.Remove(target)
		return written, ErrIO.Wrap(err).WrapMessage("closing snapshot %v", snap)
	}

	s.l.Debug("snapshot staged",
		zap.Stringer("snapshot", snap),
		zap.Int64("size", written),
	)
	return written, nil
}

// Promote moves a staged snapshot to its final location
func (s *Store) Promote(snap model.Snapshot) error {
	if err := s.fs.Rename(s.stagingPath(snap), s.Path(snap)); err != nil {
		return ErrIO.Wrap(err).WrapMessage("promoting snapshot %v", snap)
	}
	s.l.Debug("snapshot taken", zap.Stringer("snapshot", snap))
	return nil
}

// Discard removes the staged and final content of a snapshot that was never recorded
func (s *Store) Discard(snap model.Snapshot) error {
	for _, pth := range []string{s.stagingPath(snap), s.Path(snap)} {
		if err := s.fs.Remove(pth); err != nil && !os.IsNotExist(err) {
			return ErrIO.Wrap(err).WrapMessage("discarding snapshot %v", snap)
		}
	}
	s.l.Debug("snapshot discarded", zap.Stringer("snapshot", snap))
	return nil
}

func copyChunks(ctx context.Context, dst io.Writer, src io.Reader, progress ProgressFunc) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := dst.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
			if m != n {
				return written, io.ErrShortWrite
			}
			if progress != nil {
				progress(int64(m))
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// Open the content of a snapshot for reading
func (s *Store) Open(snap model.Snapshot) (afero.File, error) {
	f, err := s.fs.Open(s.Path(snap))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound.Wrap(err).WrapMessage("%v", snap)
		}
		return nil, ErrIO.Wrap(err)
	}
	return f, nil
}

// RealPath yields the location of a file on the underlying OS file system, whenever possible
func RealPath(fs afero.Fs, name string) string {
	if base, ok := fs.(*afero.BasePathFs); ok {
		if pth, err := base.RealPath(name); err == nil {
			return pth
		}
	}
	return name
}
