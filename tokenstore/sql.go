package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var _ signup.TokenStore = &SQL{}

// SessionToken is the persisted row.
type SessionToken struct {
	bun.BaseModel `bun:"table:session_tokens,alias:st"`
	StorageKey    string    `bun:"storage_key,pk" json:"storage_key"`
	Token         string    `bun:"token,notnull" json:"token"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// SQL keeps the token in a bun managed table.
type SQL struct {
	db  *bun.DB
	key string
	now func() time.Time
}

// OpenSQLite opens a sqlite database at dsn and prepares the table.
func OpenSQLite(ctx context.Context, dsn, key string) (*SQL, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open token database")
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	store := NewSQL(db, key)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQL wraps an existing bun database. Call Migrate before first use.
func NewSQL(db *bun.DB, key string) *SQL {
	if key == "" {
		key = DefaultKey
	}
	return &SQL{db: db, key: key, now: time.Now}
}

// Migrate creates the session_tokens table when missing.
func (s *SQL) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*SessionToken)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session_tokens table")
	}
	return nil
}

// Close closes the underlying database.
func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQL) Load(ctx context.Context) (string, error) {
	record := &SessionToken{}
	err := s.db.NewSelect().
		Model(record).
		Where("storage_key = ?", s.key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session token")
	}
	return record.Token, nil
}

func (s *SQL) Save(ctx context.Context, token string) error {
	record := &SessionToken{
		StorageKey: s.key,
		Token:      token,
		UpdatedAt:  s.now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (storage_key) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save session token")
	}
	return nil
}

func (s *SQL) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*SessionToken)(nil)).
		Where("storage_key = ?", s.key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear session token")
	}
	return nil
}
