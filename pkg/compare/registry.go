package compare

import (
	"context"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oneconcern/yap/pkg/model"
)

// ContentType is the kind of content held by a file, as far as comparisons go
type ContentType string

// Known content types
const (
	ContentUnknown  ContentType = ""
	ContentMarkdown ContentType = "markdown"
	ContentTabular  ContentType = "tabular"
	ContentColumnar ContentType = "columnar"
)

// Comparator knows how to compare two versions of a file
type Comparator interface {
	Compare(ctx context.Context, current, previous Blob) (model.Tree, error)
}

// Registry maps file extensions to content types, and content types to specialized comparators.
//
// A content type may be registered without a comparator: such files are compared by hash.
type Registry struct {
	mu          sync.RWMutex
	extensions  map[string]ContentType
	mimes       map[string]ContentType
	comparators map[ContentType]Comparator
}

// NewRegistry builds an empty registry
func NewRegistry() *Registry {
	return &Registry{
		extensions:  make(map[string]ContentType),
		mimes:       make(map[string]ContentType),
		comparators: make(map[ContentType]Comparator),
	}
}

// DefaultRegistry knows about markdown, tabular (csv, tsv) and columnar (parquet) files
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterExtension(ContentMarkdown, "md", "markdown")
	r.RegisterExtension(ContentTabular, "csv", "tsv")
	r.RegisterExtension(ContentColumnar, "parquet")
	r.RegisterMIME(ContentTabular, "text/csv", "text/tab-separated-values")
	r.RegisterMIME(ContentColumnar, "application/vnd.apache.parquet")
	r.Register(ContentMarkdown, markdownComparator{})
	r.Register(ContentTabular, tabularComparator{})
	return r
}

// RegisterExtension associates file extensions (without the leading dot) with a content type
func (r *Registry) RegisterExtension(ct ContentType, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range exts {
		r.extensions[strings.TrimPrefix(strings.ToLower(ext), ".")] = ct
	}
}

// RegisterMIME associates sniffed MIME types with a content type.
// Sniffing only applies to files without an extension.
func (r *Registry) RegisterMIME(ct ContentType, mimes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range mimes {
		r.mimes[m] = ct
	}
}

// Register a comparator for a content type
func (r *Registry) Register(ct ContentType, c Comparator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comparators[ct] = c
}

// Detect the content type of a blob
func (r *Registry) Detect(b Blob) ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ext := b.Ext(); ext != "" {
		return r.extensions[ext]
	}
	if len(r.mimes) == 0 {
		return ContentUnknown
	}

	rdr, err := b.Open()
	if err != nil {
		return ContentUnknown
	}
	defer rdr.Close()

	mime, err := mimetype.DetectReader(rdr)
	if err != nil {
		return ContentUnknown
	}
	for m := mime; m != nil; m = m.Parent() {
		if ct, ok := r.mimes[m.String()]; ok {
			return ct
		}
	}
	return ContentUnknown
}

// Lookup the comparator registered for a content type
func (r *Registry) Lookup(ct ContentType) (Comparator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comparators[ct]
	return c, ok && c != nil
}
