package core

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/oneconcern/yap/pkg/core/status"
	"github.com/oneconcern/yap/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs an operation on all files yielded by a factory, concurrently.
//
// Files are processed independently, in no particular order. A file failure is reported in the batch
// result without stopping other files. A master logbook failure aborts the batch.
type Orchestrator struct {
	project     *Project
	concurrency int
	metrics     *Metrics
	vcsRef      func(string) string
	l           *zap.Logger
}

// NewOrchestrator for a project. Options default to the settings of the project.
func NewOrchestrator(project *Project, opts ...Option) *Orchestrator {
	s := project.settings
	for _, apply := range opts {
		apply(&s)
	}
	return &Orchestrator{
		project:     project,
		concurrency: s.concurrency,
		metrics:     s.metrics,
		vcsRef:      s.vcsRef,
		l:           s.l,
	}
}

// Run the batch of operations produced by a factory.
//
// The returned error is either a configuration error, a failure to walk directories,
// a master logbook failure or an interruption. Failures on individual files are reported
// by the BatchResult.
func (o *Orchestrator) Run(ctx context.Context, factory *Factory) (*BatchResult, error) {
	result := &BatchResult{
		Epoch:     factory.Epoch(),
		Operation: factory.Operation(),
	}
	l := o.l.With(
		zap.String("operation", factory.Operation().String()),
		zap.String("branch", factory.Branch()),
		zap.Int64("epoch", factory.Epoch()),
	)
	report := newProgress(factory.Operation(), o.metrics, l)

	var mx sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	} else {
		g.SetLimit(-1)
	}

	walkErr := func() error {
		for {
			c, err := factory.Next(gctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			g.Go(func() error {
				start := time.Now()
				outcome, fatal := o.runOne(gctx, c, report)
				report.done(outcome, time.Since(start))

				mx.Lock()
				result.PerFile = append(result.PerFile, outcome)
				mx.Unlock()

				return fatal
			})
		}
	}()

	err := g.Wait()
	if err == nil {
		err = walkErr
	}
	if err == nil && ctx.Err() != nil {
		err = status.ErrInterrupted.Wrap(ctx.Err())
	}
	if err != nil && errors.Is(err, context.Canceled) && !errors.Is(err, status.ErrInterrupted) {
		err = status.ErrInterrupted.Wrap(err)
	}

	result.sort()
	report.summary(err)
	if err != nil {
		l.Error("batch aborted", zap.Error(err))
	}
	return result, err
}

// runOne applies the operation to a single file. Only master logbook failures are returned as fatal.
func (o *Orchestrator) runOne(ctx context.Context, c *Context, report *progress) (FileOutcome, error) {
	outcome := FileOutcome{
		Path:      c.Path,
		Branch:    c.Branch,
		Operation: c.Operation,
		Outcome:   OutcomeDone,
	}
	l := o.l.With(zap.String("path", c.Path), zap.String("operation", c.Operation.String()))

	f := &flow{
		project: o.project,
		c:       c,
		outcome: &outcome,
		counter: report.counter(c.Path),
		vcsRef:  o.vcsRef,
		l:       l,
	}
	err := f.run(ctx)
	switch {
	case err == nil:
		l.Debug("file done", zap.String("outcome", string(outcome.Outcome)))
		return outcome, nil

	case errors.Is(err, status.ErrMasterPersistence):
		outcome.Outcome = OutcomeFailed
		outcome.Err = err
		return outcome, err

	default:
		outcome.Outcome = OutcomeFailed
		outcome.Err = err
		l.Warn("file failed", zap.Error(err))
		return outcome, nil
	}
}
