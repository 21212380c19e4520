package core

import (
	"time"

	"github.com/docker/go-units"
	"github.com/oneconcern/yap/pkg/model"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// progress reports bytes and files processed by a batch.
//
// Reporting is a side effect: it never fails an operation.
type progress struct {
	operation model.EventKind
	bytes     atomic.Int64
	files     atomic.Int64
	failed    atomic.Int64
	start     time.Time
	metrics   *Metrics
	l         *zap.Logger
}

func newProgress(operation model.EventKind, metrics *Metrics, l *zap.Logger) *progress {
	return &progress{
		operation: operation,
		start:     time.Now(),
		metrics:   metrics,
		l:         l,
	}
}

// counter yields a byte counter for a single file
func (p *progress) counter(pth string) func(int64) {
	var fileBytes int64
	return func(n int64) {
		fileBytes += n
		total := p.bytes.Add(n)
		if p.metrics != nil {
			p.metrics.Bytes.WithLabelValues(p.operation.String()).Add(float64(n))
		}
		if ce := p.l.Check(zap.DebugLevel, "progress"); ce != nil {
			ce.Write(
				zap.String("path", pth),
				zap.String("file", units.HumanSize(float64(fileBytes))),
				zap.String("batch", units.HumanSize(float64(total))),
			)
		}
	}
}

func (p *progress) done(o FileOutcome, elapsed time.Duration) {
	p.files.Inc()
	if o.Outcome == OutcomeFailed {
		p.failed.Inc()
	}
	if p.metrics != nil {
		p.metrics.Files.WithLabelValues(p.operation.String(), string(o.Outcome)).Inc()
		p.metrics.Duration.WithLabelValues(p.operation.String()).Observe(elapsed.Seconds())
	}
}

func (p *progress) summary(err error) {
	result := "success"
	if err != nil || p.failed.Load() > 0 {
		result = "failure"
	}
	if p.metrics != nil {
		p.metrics.Batches.WithLabelValues(p.operation.String(), result).Inc()
	}
	p.l.Info("batch complete",
		zap.Int64("files", p.files.Load()),
		zap.Int64("failed", p.failed.Load()),
		zap.String("bytes", units.HumanSize(float64(p.bytes.Load()))),
		zap.Duration("elapsed", time.Since(p.start)),
	)
}
