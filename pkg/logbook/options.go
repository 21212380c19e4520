package logbook

import "go.uber.org/zap"

// Option for logbooks
type Option func(*options)

type options struct {
	l *zap.Logger
}

func defaultOptions() *options {
	return &options{l: zap.NewNop()}
}

// Logger for logbooks
func Logger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.l = l
		}
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, apply := range opts {
		apply(o)
	}
	return o
}
