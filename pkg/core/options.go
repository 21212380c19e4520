package core

import (
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Option sets options for projects and orchestrators
type Option func(*Settings)

// Settings defines various settings for core features
type Settings struct {
	fs          afero.Fs
	l           *zap.Logger
	store       storage.Store
	tracer      opentracing.Tracer
	concurrency int
	metrics     *Metrics
	vcsRef      func(string) string
}

func defaultSettings() Settings {
	return Settings{
		l:           zap.NewNop(),
		concurrency: DefaultConcurrency,
	}
}

func applyOptions(opts []Option) Settings {
	s := defaultSettings()
	for _, apply := range opts {
		apply(&s)
	}
	return s
}

// WithFs sets the file system of the project working tree. It defaults to the OS file system, rooted at the project.
func WithFs(fs afero.Fs) Option {
	return func(s *Settings) {
		s.fs = fs
	}
}

// Logger for core operations
func Logger(l *zap.Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.l = l
		}
	}
}

// WithRemoteStore overrides the store built from the remote configuration
func WithRemoteStore(store storage.Store) Option {
	return func(s *Settings) {
		s.store = store
	}
}

// WithTracer instruments remote stores with opentracing
func WithTracer(tr opentracing.Tracer) Option {
	return func(s *Settings) {
		s.tracer = tr
	}
}

// Concurrency sets the max number of files processed concurrently in a batch. It defaults to 16.
//
// A negative value removes the limit.
func Concurrency(n int) Option {
	return func(s *Settings) {
		if n == 0 {
			s.concurrency = DefaultConcurrency
			return
		}
		s.concurrency = n
	}
}

// WithMetrics collects prometheus metrics about batches
func WithMetrics(m *Metrics) Option {
	return func(s *Settings) {
		s.metrics = m
	}
}

// WithVCSRef overrides how the external VCS commit reference is resolved from the project root
func WithVCSRef(fn func(string) string) Option {
	return func(s *Settings) {
		s.vcsRef = fn
	}
}
