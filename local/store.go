package local

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-user-cache/user"
)

// Store is the local cache accessor backed by a sqlite table keyed by user id.
type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

// Open opens (or creates) the sqlite database at path, creating parent
// directories as needed. Callers should run ApplyMigrations before use.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}

	sqldb, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}

	// sqlite allows one writer at a time.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}

	return NewStore(sqldb), nil
}

// NewStore wraps an existing connection. The connection is owned by the Store
// from here on and is closed by Close.
func NewStore(sqldb *sql.DB) *Store {
	return &Store{
		sqldb: sqldb,
		db:    bun.NewDB(sqldb, sqlitedialect.New()),
	}
}

// Lookup returns the cached record for id, or nil when there is none.
func (s *Store) Lookup(ctx context.Context, id string) (*user.Entity, error) {
	if err := user.ValidateID(id); err != nil {
		return nil, err
	}

	entity := new(user.Entity)
	err := s.db.NewSelect().
		Model(entity).
		Where("u.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "lookup user %q", id)
	}
	return entity, nil
}

// Insert writes a fresh record. A row that already exists for the same id is
// left untouched, which is what two concurrent misses for one id produce.
func (s *Store) Insert(ctx context.Context, entity user.Entity) error {
	if err := user.ValidateID(entity.ID); err != nil {
		return err
	}

	_, err := s.db.NewInsert().
		Model(&entity).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "insert user %q", entity.ID)
	}
	return nil
}

// Upsert writes the record, replacing the stored name if the id exists.
func (s *Store) Upsert(ctx context.Context, entity user.Entity) error {
	if err := user.ValidateID(entity.ID); err != nil {
		return err
	}

	_, err := s.db.NewInsert().
		Model(&entity).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "upsert user %q", entity.ID)
	}
	return nil
}

// Count returns the number of cached users.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*user.Entity)(nil)).Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	return n, nil
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}
