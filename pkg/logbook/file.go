package logbook

import (
	"context"
	"database/sql"

	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/model"
	"go.uber.org/zap"
)

// File is the per-file logbook of a tracked file.
//
// A File is used by a single task at a time.
type File struct {
	*database
	trackedPath string
}

// OpenFile initializes the per-file logbook of a tracked file, stored under logbooksRoot.
//
// Opening is idempotent: the logbook is created on first use and its schema is applied once.
func OpenFile(ctx context.Context, logbooksRoot, trackedPath string, opts ...Option) (*File, error) {
	o := applyOptions(opts)
	pth := model.GetLogbookPath(logbooksRoot, trackedPath)
	d, err := openDatabase(ctx, pth, fileSchema, o.l.With(zap.String("file", trackedPath)))
	if err != nil {
		return nil, err
	}
	return &File{database: d, trackedPath: trackedPath}, nil
}

// Path of the logbook database
func (f *File) Path() string {
	return f.path
}

// EnsureSchema applies the logbook schema, unless it is up to date already
func (f *File) EnsureSchema(ctx context.Context) error {
	return f.ensureSchema(ctx, fileSchema)
}

// Record persists an entity in its own transaction, and returns its identifier.
//
// Supported entities are model.Snapshot, model.DiffResult, model.CommitRecord and model.RemotePointer
// (or pointers to them).
func (f *File) Record(ctx context.Context, entity interface{}) (int64, error) {
	var id int64
	err := f.Transaction(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.Record(entity)
		return err
	})
	return id, err
}

// Tx records several entities atomically
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
	f   *File
}

// Record an entity within the transaction, and return its identifier
func (t *Tx) Record(entity interface{}) (int64, error) {
	id, err := t.f.insertEntity(t.ctx, t.tx, entity)
	if err != nil {
		if errors.Is(err, ErrUnsupportedEntity) {
			return 0, err
		}
		return 0, ErrPersistence.Wrap(err).WrapMessage("recording %T on %q", entity, t.f.path)
	}
	t.f.l.Debug("logbook record", zap.String("logbook", t.f.path), zap.Int64("id", id))
	return id, nil
}

// Transaction runs fn in a single transaction: all entities recorded by fn are committed if fn
// succeeds, and none of them otherwise. Errors returned by fn are passed through.
func (f *File) Transaction(ctx context.Context, fn func(*Tx) error) error {
	return f.inTx(ctx, func(tx *sql.Tx) error {
		return fn(&Tx{ctx: ctx, tx: tx, f: f})
	})
}

func (f *File) insertEntity(ctx context.Context, tx *sql.Tx, entity interface{}) (int64, error) {
	switch e := entity.(type) {
	case *model.Snapshot:
		return f.insertEntity(ctx, tx, *e)
	case *model.DiffResult:
		return f.insertEntity(ctx, tx, *e)
	case *model.CommitRecord:
		return f.insertEntity(ctx, tx, *e)
	case *model.RemotePointer:
		return f.insertEntity(ctx, tx, *e)

	case model.Snapshot:
		return insert(ctx, tx,
			`INSERT INTO snapshots (epoch, path, branch, author, size) VALUES (?, ?, ?, ?, ?)`,
			e.Epoch, e.Path, e.Branch, e.Author.String(), e.Size,
		)

	case model.DiffResult:
		result, err := e.Result.JSON()
		if err != nil {
			return 0, err
		}
		return insert(ctx, tx,
			`INSERT INTO diffs (technique, script, result, changed, path, branch, from_epoch, to_epoch, author)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(e.Technique), e.Script, result, e.Changed, e.To.Path, e.To.Branch, e.From.Epoch, e.To.Epoch, e.Author.String(),
		)

	case model.CommitRecord:
		return insert(ctx, tx,
			`INSERT INTO commits (vcs_commit, message, path, branch, from_epoch, to_epoch, diff_id, author)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.VCSCommit, e.Message, e.To.Path, e.To.Branch, e.From.Epoch, e.To.Epoch, e.DiffID, e.Author.String(),
		)

	case model.RemotePointer:
		return insert(ctx, tx,
			`INSERT INTO remotes (path, branch, epoch, storage, strategy, key, direction, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Snapshot.Path, e.Snapshot.Branch, e.Snapshot.Epoch, string(e.Storage), string(e.Strategy), e.Key, string(e.Direction), e.Timestamp,
		)

	default:
		return 0, ErrUnsupportedEntity.WrapMessage("%T", entity)
	}
}

// Snapshots recorded for a branch, by ascending epoch
func (f *File) Snapshots(ctx context.Context, branch string) ([]model.Snapshot, error) {
	rows, err := f.db.QueryContext(ctx,
		`SELECT epoch, path, branch, author, size FROM snapshots WHERE branch = ? ORDER BY epoch`, branch)
	if err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	defer rows.Close()

	var snapshots []model.Snapshot
	for rows.Next() {
		var (
			s      model.Snapshot
			author string
		)
		if err := rows.Scan(&s.Epoch, &s.Path, &s.Branch, &author, &s.Size); err != nil {
			return nil, ErrPersistence.Wrap(err)
		}
		s.Author = model.ParseAuthor(author)
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	return snapshots, nil
}

// Latest snapshot recorded for a branch
func (f *File) Latest(ctx context.Context, branch string) (model.Snapshot, error) {
	return f.snapshotWhere(ctx,
		`SELECT epoch, path, branch, author, size FROM snapshots WHERE branch = ? ORDER BY epoch DESC LIMIT 1`,
		branch)
}

// Previous resolves the snapshot recorded with the greatest epoch strictly lower than epoch
func (f *File) Previous(ctx context.Context, branch string, epoch int64) (model.Snapshot, error) {
	return f.snapshotWhere(ctx,
		`SELECT epoch, path, branch, author, size FROM snapshots WHERE branch = ? AND epoch < ? ORDER BY epoch DESC LIMIT 1`,
		branch, epoch)
}

func (f *File) snapshotWhere(ctx context.Context, query string, args ...interface{}) (model.Snapshot, error) {
	var (
		s      model.Snapshot
		author string
	)
	err := f.db.QueryRowContext(ctx, query, args...).Scan(&s.Epoch, &s.Path, &s.Branch, &author, &s.Size)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s, ErrNotFound.WrapMessage("no snapshot of %q", f.trackedPath)
	case err != nil:
		return s, ErrPersistence.Wrap(err)
	}
	s.Author = model.ParseAuthor(author)
	return s, nil
}

// Diffs recorded for a branch, by ascending target epoch
func (f *File) Diffs(ctx context.Context, branch string) ([]model.DiffResult, error) {
	rows, err := f.db.QueryContext(ctx,
		`SELECT id, technique, script, result, changed, path, branch, from_epoch, to_epoch, author
		FROM diffs WHERE branch = ? ORDER BY to_epoch, id`, branch)
	if err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	defer rows.Close()

	var diffs []model.DiffResult
	for rows.Next() {
		var (
			d                         model.DiffResult
			technique, result, author string
			pth, br                   string
		)
		if err := rows.Scan(&d.ID, &technique, &d.Script, &result, &d.Changed, &pth, &br, &d.From.Epoch, &d.To.Epoch, &author); err != nil {
			return nil, ErrPersistence.Wrap(err)
		}
		d.Technique = model.Technique(technique)
		d.Author = model.ParseAuthor(author)
		d.From.Path, d.From.Branch = pth, br
		d.To.Path, d.To.Branch = pth, br
		if d.Result, err = model.ParseTree(result); err != nil {
			return nil, ErrPersistence.Wrap(err)
		}
		diffs = append(diffs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	return diffs, nil
}

// Commits recorded for a branch, by ascending target epoch
func (f *File) Commits(ctx context.Context, branch string) ([]model.CommitRecord, error) {
	rows, err := f.db.QueryContext(ctx,
		`SELECT id, vcs_commit, message, path, branch, from_epoch, to_epoch, diff_id, author
		FROM commits WHERE branch = ? ORDER BY to_epoch, id`, branch)
	if err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	defer rows.Close()

	var commits []model.CommitRecord
	for rows.Next() {
		var (
			c               model.CommitRecord
			pth, br, author string
		)
		if err := rows.Scan(&c.ID, &c.VCSCommit, &c.Message, &pth, &br, &c.From.Epoch, &c.To.Epoch, &c.DiffID, &author); err != nil {
			return nil, ErrPersistence.Wrap(err)
		}
		c.Author = model.ParseAuthor(author)
		c.From.Path, c.From.Branch = pth, br
		c.To.Path, c.To.Branch = pth, br
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	return commits, nil
}

// Remotes recorded for a branch, in the order they were recorded
func (f *File) Remotes(ctx context.Context, branch string) ([]model.RemotePointer, error) {
	rows, err := f.db.QueryContext(ctx,
		`SELECT id, path, branch, epoch, storage, strategy, key, direction, timestamp
		FROM remotes WHERE branch = ? ORDER BY id`, branch)
	if err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	defer rows.Close()

	var pointers []model.RemotePointer
	for rows.Next() {
		var p model.RemotePointer
		var storage, strategy, direction string
		if err := rows.Scan(&p.ID, &p.Snapshot.Path, &p.Snapshot.Branch, &p.Snapshot.Epoch,
			&storage, &strategy, &p.Key, &direction, &p.Timestamp); err != nil {
			return nil, ErrPersistence.Wrap(err)
		}
		p.Storage = model.StorageKind(storage)
		p.Strategy = model.PushStrategy(strategy)
		p.Direction = model.Direction(direction)
		pointers = append(pointers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	return pointers, nil
}

// Close the logbook
func (f *File) Close() error {
	return f.close()
}
