package tokenstore

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
	"go.etcd.io/bbolt"
)

const sessionBucket = "session"

var _ signup.TokenStore = &Bolt{}

// Bolt keeps the token in a BoltDB file.
type Bolt struct {
	db  *bbolt.DB
	key string
}

// OpenBolt opens (or creates) a BoltDB-backed store at path.
func OpenBolt(path, key string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, goerrors.New("token db path is required", goerrors.CategoryBadInput)
	}
	if key == "" {
		key = DefaultKey
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open token db")
	}

	store := &Bolt{db: db, key: key}
	if err := store.ensureBucket(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Bolt) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var token string
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return goerrors.New("session bucket is missing", goerrors.CategoryInternal)
		}
		if raw := bucket.Get([]byte(b.key)); raw != nil {
			token = string(raw)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (b *Bolt) Save(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return goerrors.New("session bucket is missing", goerrors.CategoryInternal)
		}
		return bucket.Put([]byte(b.key), []byte(token))
	})
}

func (b *Bolt) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(b.key))
	})
}

func (b *Bolt) ensureBucket() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(sessionBucket)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session bucket")
		}
		return nil
	})
}
