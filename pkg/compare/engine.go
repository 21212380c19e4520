package compare

import (
	"context"

	"github.com/oneconcern/yap/pkg/model"
	"go.uber.org/zap"
)

// Option configures a comparison engine
type Option func(*Engine)

// Script sets the program run by the custom technique
func Script(script string) Option {
	return func(e *Engine) {
		e.script = script
	}
}

// WithRegistry overrides the default content type registry
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// Logger for the comparison engine
func Logger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.l = l
		}
	}
}

// Engine compares two versions of a file with some technique
type Engine struct {
	technique model.Technique
	script    string
	registry  *Registry
	l         *zap.Logger
}

// New comparison engine for a technique.
//
// The custom technique requires a script.
func New(technique model.Technique, opts ...Option) (*Engine, error) {
	e := &Engine{
		technique: technique,
		registry:  DefaultRegistry(),
		l:         zap.NewNop(),
	}
	for _, apply := range opts {
		apply(e)
	}

	switch technique {
	case model.TechniqueHash, model.TechniqueSimilarity, model.TechniqueSmart:
	case model.TechniqueCustom:
		if e.script == "" {
			return nil, ErrMissingComparisonScript
		}
	default:
		return nil, ErrUnknownTechnique.WrapMessage("%q", technique)
	}
	return e, nil
}

// Technique used by this engine
func (e *Engine) Technique() model.Technique {
	return e.technique
}

// Script run by this engine, if any
func (e *Engine) Script() string {
	return e.script
}

// Compare the current version of a file against a previous one
func (e *Engine) Compare(ctx context.Context, current, previous Blob) (model.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch e.technique {
	case model.TechniqueHash:
		return hashComparator{}.Compare(ctx, current, previous)

	case model.TechniqueCustom:
		return scriptComparator{script: e.script, l: e.l}.Compare(ctx, current, previous)

	case model.TechniqueSimilarity:
		if c, ok := e.specialized(current); ok {
			return c.Compare(ctx, current, previous)
		}
		return hashComparator{}.Compare(ctx, current, previous)

	case model.TechniqueSmart:
		h, err := hashComparator{}.Compare(ctx, current, previous)
		if err != nil {
			return nil, err
		}
		c, ok := e.specialized(current)
		if !ok {
			return h, nil
		}
		s, err := c.Compare(ctx, current, previous)
		if err != nil {
			return nil, err
		}
		return MergeTrees(h, s), nil

	default:
		return nil, ErrUnknownTechnique.WrapMessage("%q", e.technique)
	}
}

func (e *Engine) specialized(b Blob) (Comparator, bool) {
	ct := e.registry.Detect(b)
	if ct == ContentUnknown {
		return nil, false
	}
	c, ok := e.registry.Lookup(ct)
	if ok {
		e.l.Debug("using specialized comparator", zap.String("path", b.Path), zap.String("content", string(ct)))
	}
	return c, ok
}
