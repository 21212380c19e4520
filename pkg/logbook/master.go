package logbook

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/model"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Master is the project-wide logbook of tracked files and events.
//
// A Master is shared by all tasks of a batch: writes are serialized.
type Master struct {
	*database
	mx sync.Mutex
}

// OpenMaster initializes the master logbook stored at pth
func OpenMaster(ctx context.Context, pth string, opts ...Option) (*Master, error) {
	o := applyOptions(opts)
	d, err := openDatabase(ctx, pth, masterSchema, o.l)
	if err != nil {
		return nil, err
	}
	return &Master{database: d}, nil
}

// IsTracked tells if a file is tracked on some branch
func (m *Master) IsTracked(ctx context.Context, pth, branch string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM files WHERE path = ? AND branch = ?)`, pth, branch).Scan(&exists)
	if err != nil {
		return false, ErrPersistence.Wrap(err).WrapMessage("checking %q on %q", pth, branch)
	}
	return exists, nil
}

// TrackWithEvent registers a file on some branch along with the event that started tracking it.
//
// Both are recorded in a single transaction. Tracking is not idempotent: callers check IsTracked first.
func (m *Master) TrackWithEvent(ctx context.Context, file model.TrackedFile, event model.Event) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	err := m.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO files (path, branch, author) VALUES (?, ?, ?)`,
			file.Path, file.Branch, file.Author.String())
		if err != nil {
			if isConstraintViolation(err) {
				return ErrAlreadyTracked.WrapMessage("%q on %q", file.Path, file.Branch)
			}
			return err
		}
		return insertEvent(ctx, tx, event)
	})
	if err != nil {
		return err
	}
	m.l.Debug("tracking", zap.String("path", file.Path), zap.String("branch", file.Branch), zap.Stringer("kind", event.Kind))
	return nil
}

// AppendEvent adds an event to the history
func (m *Master) AppendEvent(ctx context.Context, event model.Event) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	err := m.inTx(ctx, func(tx *sql.Tx) error {
		return insertEvent(ctx, tx, event)
	})
	if err != nil {
		return err
	}
	m.l.Debug("event", zap.String("path", event.Path), zap.String("branch", event.Branch), zap.Stringer("kind", event.Kind))
	return nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, event model.Event) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO events (timestamp, branch, path, event) VALUES (?, ?, ?, ?)`,
		event.Timestamp, event.Branch, event.Path, string(event.Kind))
	return err
}

// ListTracked lists all tracked files, in the order they were registered
func (m *Master) ListTracked(ctx context.Context) ([]model.TrackedFile, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT path, branch, author FROM files ORDER BY id`)
	if err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	defer rows.Close()

	var files []model.TrackedFile
	for rows.Next() {
		var (
			f      model.TrackedFile
			author string
		)
		if err := rows.Scan(&f.Path, &f.Branch, &author); err != nil {
			return nil, ErrPersistence.Wrap(err)
		}
		f.Author = model.ParseAuthor(author)
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	return files, nil
}

// History lists the events of a file on some branch, in the order they were appended.
//
// An empty path lists events for all files.
func (m *Master) History(ctx context.Context, pth, branch string) ([]model.Event, error) {
	query := `SELECT timestamp, branch, path, event FROM events`
	var args []interface{}
	var clauses []string
	if pth != "" {
		clauses = append(clauses, "path = ?")
		args = append(args, pth)
	}
	if branch != "" {
		clauses = append(clauses, "branch = ?")
		args = append(args, branch)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			e    model.Event
			kind string
		)
		if err := rows.Scan(&e.Timestamp, &e.Branch, &e.Path, &kind); err != nil {
			return nil, ErrPersistence.Wrap(err)
		}
		e.Kind = model.EventKind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrPersistence.Wrap(err)
	}
	return events, nil
}

// Close the master logbook
func (m *Master) Close() error {
	return m.close()
}

func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
