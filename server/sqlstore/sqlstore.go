// Package sqlstore persists announcements and their meta attributes. The meta
// store emits bus events on every write and removal; that emission is what
// drives the deletion scheduler.
package sqlstore

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/imaginehigher/announcements/server/logging"
)

// SQLStore holds the shared database handle and statement builder.
type SQLStore struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
	logger  logging.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS announcements (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'publish',
	publish_at     TEXT NOT NULL DEFAULT '',
	publish_at_gmt TEXT NOT NULL DEFAULT '',
	create_at      INTEGER NOT NULL DEFAULT 0,
	update_at      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_announcements_status_publish_at
	ON announcements (status, publish_at);
CREATE TABLE IF NOT EXISTS announcement_meta (
	announcement_id TEXT NOT NULL,
	meta_key        TEXT NOT NULL,
	meta_value      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (announcement_id, meta_key)
);
`

// New opens (or creates) the SQLite database at dbPath and ensures the schema.
func New(dbPath string, logger logging.Logger) (*SQLStore, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "announce: failed to open database %s", dbPath)
	}

	store := &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  logger,
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "announce: failed to create schema")
	}
	return store, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type queryer interface {
	Select(dest interface{}, query string, args ...interface{}) error
	Get(dest interface{}, query string, args ...interface{}) error
}

func (s *SQLStore) execBuilder(e execer, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build sql")
	}
	return e.Exec(query, args...)
}

func (s *SQLStore) selectBuilder(q queryer, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build sql")
	}
	return q.Select(dest, query, args...)
}

func (s *SQLStore) getBuilder(q queryer, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build sql")
	}
	return q.Get(dest, query, args...)
}
