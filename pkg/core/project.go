package core

import (
	"context"
	"os"
	"path/filepath"

	"github.com/oneconcern/yap/pkg/core/status"
	"github.com/oneconcern/yap/pkg/logbook"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/oneconcern/yap/pkg/snapshot"
	"github.com/oneconcern/yap/pkg/vcs"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Project is a directory with versioned files.
//
// The master logbook of a project is shared by all concurrent operations on its files.
type Project struct {
	root      string
	config    Config
	fs        afero.Fs
	master    *logbook.Master
	snapshots *snapshot.Store
	settings  Settings
	l         *zap.Logger
}

// Open a project rooted at some directory, creating its state directory whenever needed
func Open(ctx context.Context, root string, cfg Config, opts ...Option) (*Project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, status.ErrConfiguration.Wrap(err)
	}
	if err = os.MkdirAll(filepath.Join(abs, model.StateDir), 0700); err != nil {
		return nil, status.ErrIO.Wrap(err)
	}

	settings := applyOptions(append([]Option{Concurrency(cfg.Concurrency)}, opts...))
	if settings.fs == nil {
		settings.fs = afero.NewBasePathFs(afero.NewOsFs(), abs)
	}
	if settings.vcsRef == nil {
		settings.vcsRef = vcs.HeadCommit
	}
	l := settings.l.With(zap.String("project", abs))

	master, err := logbook.OpenMaster(ctx, filepath.Join(abs, filepath.FromSlash(cfg.MasterLogbook)), logbook.Logger(l))
	if err != nil {
		return nil, status.ErrMasterPersistence.Wrap(err)
	}

	return &Project{
		root:      abs,
		config:    cfg,
		fs:        settings.fs,
		master:    master,
		snapshots: snapshot.New(settings.fs, filepath.FromSlash(cfg.HistoryDir), snapshot.Logger(l)),
		settings:  settings,
		l:         l,
	}, nil
}

// Root directory of the project
func (p *Project) Root() string {
	return p.root
}

// Config of the project
func (p *Project) Config() Config {
	return p.config
}

// Fs is the file system of the working tree
func (p *Project) Fs() afero.Fs {
	return p.fs
}

// Snapshots store of the project
func (p *Project) Snapshots() *snapshot.Store {
	return p.snapshots
}

// Master logbook of the project
func (p *Project) Master() *logbook.Master {
	return p.master
}

// ListTracked files, on all branches
func (p *Project) ListTracked(ctx context.Context) ([]model.TrackedFile, error) {
	files, err := p.master.ListTracked(ctx)
	if err != nil {
		return nil, status.ErrMasterPersistence.Wrap(err)
	}
	return files, nil
}

// History of events, optionally filtered by path and branch
func (p *Project) History(ctx context.Context, pth, branch string) ([]model.Event, error) {
	events, err := p.master.History(ctx, pth, branch)
	if err != nil {
		return nil, status.ErrMasterPersistence.Wrap(err)
	}
	return events, nil
}

// Commits recorded for a tracked file on some branch
func (p *Project) Commits(ctx context.Context, pth, branch string) ([]model.CommitRecord, error) {
	lb, err := p.OpenLogbook(ctx, pth)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lb.Close() }()
	return lb.Commits(ctx, branch)
}

// OpenLogbook opens the per-file logbook of a tracked path
func (p *Project) OpenLogbook(ctx context.Context, pth string) (*logbook.File, error) {
	return logbook.OpenFile(ctx, p.logbooksRoot(), pth, logbook.Logger(p.l))
}

func (p *Project) logbooksRoot() string {
	return filepath.Join(p.root, filepath.FromSlash(p.config.LogbooksDir))
}

// Close the project
func (p *Project) Close() error {
	return p.master.Close()
}
