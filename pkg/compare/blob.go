package compare

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/oneconcern/yap/pkg/snapshot"
	"github.com/spf13/afero"
)

// Blob is one side of a comparison: a file on some file system
type Blob struct {
	Fs   afero.Fs
	Path string

	// Name is used to detect the content type. It defaults to the base name of Path.
	Name string
}

// Open the blob for reading
func (b Blob) Open() (io.ReadCloser, error) {
	f, err := b.Fs.Open(b.Path)
	if err != nil {
		return nil, ErrSnapshotUnreadable.Wrap(err).WrapMessage("%q", b.Path)
	}
	return f, nil
}

// ReadAll the blob content
func (b Blob) ReadAll() ([]byte, error) {
	rdr, err := b.Open()
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	buf, err := io.ReadAll(rdr)
	if err != nil {
		return nil, ErrSnapshotUnreadable.Wrap(err).WrapMessage("%q", b.Path)
	}
	return buf, nil
}

// RealPath of the blob on the OS file system, as passed to comparison scripts
func (b Blob) RealPath() string {
	return snapshot.RealPath(b.Fs, b.Path)
}

func (b Blob) name() string {
	if b.Name != "" {
		return b.Name
	}
	return filepath.Base(b.Path)
}

// Ext is the lower-cased extension of the blob name, without the leading dot
func (b Blob) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(b.name())), ".")
}
