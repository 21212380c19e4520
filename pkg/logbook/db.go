package logbook

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oneconcern/yap/pkg/errors"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const (
	driverName    = "sqlite"
	schemaVersion = 1
	busyTimeout   = 10000 // ms
)

var (
	//go:embed schemas/file.sql
	fileSchema string

	//go:embed schemas/master.sql
	masterSchema string
)

var (
	// ErrPersistence wraps any failure to read from or write to a logbook
	ErrPersistence = errors.New("logbook persistence error")

	// ErrUnsupportedEntity is returned when recording some unknown kind of entity
	ErrUnsupportedEntity = errors.New("unsupported logbook entity")

	// ErrAlreadyTracked is returned when tracking an already tracked file
	ErrAlreadyTracked = errors.New("file is already tracked")

	// ErrNotFound means that no record matches the request
	ErrNotFound = errors.New("no such logbook record")
)

type database struct {
	db   *sql.DB
	path string
	l    *zap.Logger
}

func dsn(pth string) string {
	return fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_txlock=immediate",
		pth, busyTimeout)
}

// openDatabase creates the database file on demand and applies its schema
func openDatabase(ctx context.Context, pth, schema string, l *zap.Logger) (*database, error) {
	if err := os.MkdirAll(filepath.Dir(pth), 0700); err != nil {
		return nil, ErrPersistence.Wrap(err).WrapMessage("creating folder for %q", pth)
	}

	db, err := sql.Open(driverName, dsn(pth))
	if err != nil {
		return nil, ErrPersistence.Wrap(err).WrapMessage("opening %q", pth)
	}

	d := &database{db: db, path: pth, l: l}
	if err := d.ensureSchema(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// ensureSchema applies the schema once: a database at the current version is left untouched
func (d *database) ensureSchema(ctx context.Context, schema string) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		var version int
		if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
			return err
		}
		if version >= schemaVersion {
			return nil
		}

		d.l.Debug("applying logbook schema", zap.String("logbook", d.path), zap.Int("version", schemaVersion))
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
		return err
	})
}

// inTx runs fn in a transaction, which is committed only if fn succeeds.
//
// Driver errors returned by fn are wrapped as ErrPersistence, other errors of this module are passed through.
func (d *database) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return ErrPersistence.Wrap(err).WrapMessage("beginning transaction on %q", d.path)
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		var own *errors.Error
		if errors.As(err, &own) {
			return err
		}
		return ErrPersistence.Wrap(err).WrapMessage("on %q", d.path)
	}
	if err = tx.Commit(); err != nil {
		return ErrPersistence.Wrap(err).WrapMessage("committing on %q", d.path)
	}
	return nil
}

func (d *database) close() error {
	if err := d.db.Close(); err != nil {
		return ErrPersistence.Wrap(err)
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
