package core

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oneconcern/yap/pkg/compare"
	"github.com/oneconcern/yap/pkg/core/status"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/oneconcern/yap/pkg/remote"
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Factory walks input paths and yields one Context per file.
//
// Directories are expanded breadth-first, one level at a time, as the walk proceeds.
// All contexts of a factory share the same epoch. A Factory is not restartable.
type Factory struct {
	project    *Project
	branch     string
	epoch      int64
	author     model.Author
	op         OperationConfig
	comparison *compare.Engine
	adapter    *remote.Adapter
	ownStore   storage.Store

	queue []string
	seen  map[string]struct{}
	l     *zap.Logger
}

// NewFactory validates an operation configuration and prepares the walk of input paths.
//
// Paths are relative to the project root, or absolute paths within the project.
func NewFactory(ctx context.Context, project *Project, paths []string, branch string, op OperationConfig) (*Factory, error) {
	if branch == "" {
		branch = model.DefaultBranch
	}
	f := &Factory{
		project: project,
		branch:  branch,
		epoch:   model.NewEpoch(),
		author:  project.config.Author,
		op:      op,
		seen:    make(map[string]struct{}, len(paths)),
		l:       project.l.With(zap.String("branch", branch), zap.String("operation", op.Operation.String())),
	}

	if err := f.validate(); err != nil {
		return nil, err
	}

	for _, p := range paths {
		rel, err := f.relative(p)
		if err != nil {
			return nil, err
		}
		f.queue = append(f.queue, rel)
	}

	if err := f.prepare(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Factory) validate() error {
	hasComparison, hasRemote := f.op.Comparison != nil, f.op.Remote != nil
	if hasComparison && hasRemote {
		return status.ErrUnsupportedContextCombination.WrapMessage("comparing while transferring is not supported")
	}

	switch f.op.Operation {
	case model.EventAdd:
		if hasComparison || hasRemote {
			return status.ErrUnsupportedContextCombination.WrapMessage("add takes neither a comparison nor a remote")
		}
	case model.EventCommit:
		if !hasComparison {
			return status.ErrUnsupportedContextCombination.WrapMessage("commit requires a comparison")
		}
		if hasRemote {
			return status.ErrUnsupportedContextCombination.WrapMessage("commit takes no remote")
		}
	case model.EventPush, model.EventPull, model.EventRemove:
		if !hasRemote {
			return status.ErrUnsupportedContextCombination.WrapMessage("%s requires a remote", f.op.Operation)
		}
	default:
		return status.ErrConfiguration.WrapMessage("unknown operation %q", f.op.Operation)
	}
	return nil
}

// prepare the comparison engine or remote adapter shared by all contexts
func (f *Factory) prepare(ctx context.Context) error {
	if f.op.Comparison != nil {
		engine, err := compare.New(f.op.Comparison.Technique,
			compare.Script(f.op.Comparison.Script),
			compare.Logger(f.l),
		)
		if err != nil {
			return status.ErrConfiguration.Wrap(err)
		}
		f.comparison = engine
	}

	if f.op.Remote != nil {
		cfg := *f.op.Remote
		if err := cfg.Validate(); err != nil {
			return status.ErrConfiguration.Wrap(err)
		}
		store := f.project.settings.store
		if store == nil {
			var err error
			store, err = remote.NewStore(ctx, f.project.root, cfg,
				remote.WithLogger(f.l),
				remote.WithTracer(f.project.settings.tracer),
			)
			if err != nil {
				return status.ErrConfiguration.Wrap(err)
			}
			f.ownStore = store
		}
		f.adapter = remote.NewAdapter(store, cfg.Storage, cfg.Strategy, remote.Logger(f.l))
	}
	return nil
}

// relative resolves an input path against the project root
func (f *Factory) relative(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(f.project.root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", status.ErrConfiguration.WrapMessage("%q is outside of the project at %q", p, f.project.root)
		}
		p = rel
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", status.ErrConfiguration.WrapMessage("%q is outside of the project at %q", p, f.project.root)
	}
	return clean, nil
}

// Epoch shared by all contexts
func (f *Factory) Epoch() int64 {
	return f.epoch
}

// Branch of all contexts
func (f *Factory) Branch() string {
	return f.branch
}

// Operation applied to all contexts
func (f *Factory) Operation() model.EventKind {
	return f.op.Operation
}

// Next yields the context of the next file, or io.EOF when the walk is complete.
//
// A directory which cannot be listed interrupts the walk with ErrDirectoryUnreadable.
// Input paths that do not exist are yielded as is.
func (f *Factory) Next(ctx context.Context) (*Context, error) {
	for len(f.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, status.ErrInterrupted.Wrap(err)
		}

		pth := f.queue[0]
		f.queue = f.queue[1:]

		if model.IsStateFile(pth) {
			continue
		}
		if _, done := f.seen[pth]; done {
			continue
		}
		f.seen[pth] = struct{}{}

		info, err := f.project.fs.Stat(pth)
		switch {
		case err != nil:
			if !os.IsNotExist(err) {
				f.l.Warn("cannot stat file", zap.String("path", pth), zap.Error(err))
			}
			return f.newContext(pth), nil

		case info.IsDir():
			if err := f.expand(pth); err != nil {
				return nil, err
			}

		case info.Mode().IsRegular():
			return f.newContext(pth), nil

		default:
			f.l.Debug("skipping irregular file", zap.String("path", pth), zap.Stringer("mode", info.Mode()))
		}
	}
	return nil, io.EOF
}

func (f *Factory) expand(dir string) error {
	entries, err := afero.ReadDir(f.project.fs, dir)
	if err != nil {
		return status.ErrDirectoryUnreadable.Wrap(err).WrapMessage("%q", dir)
	}
	for _, entry := range entries {
		f.queue = append(f.queue, path.Join(dir, entry.Name()))
	}
	return nil
}

func (f *Factory) newContext(pth string) *Context {
	return &Context{
		Path:       pth,
		Branch:     f.branch,
		Epoch:      f.epoch,
		Author:     f.author,
		Operation:  f.op.Operation,
		Message:    f.op.Message,
		Comparison: f.comparison,
		Remote:     f.adapter,
	}
}

// Close releases the remote store built by the factory, if any
func (f *Factory) Close() error {
	if f.ownStore == nil {
		return nil
	}
	return storage.Close(f.ownStore)
}
