package tokenstore

import (
	"context"
	"io"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "authToken"

// Kind names a store backend.
type Kind string

const (
	KindMemory Kind = "memory"
	KindFile   Kind = "file"
	KindBolt   Kind = "bolt"
	KindSQLite Kind = "sqlite"
)

// Store is a TokenStore that may hold resources.
type Store interface {
	signup.TokenStore
	io.Closer
}

type nopCloser struct {
	signup.TokenStore
}

func (nopCloser) Close() error { return nil }

// Open returns the store for kind. path is ignored for memory stores.
func Open(ctx context.Context, kind, path, key string) (Store, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindMemory, "":
		return nopCloser{NewMemory("")}, nil
	case KindFile:
		store, err := NewFile(path, key)
		if err != nil {
			return nil, err
		}
		return nopCloser{store}, nil
	case KindBolt:
		return OpenBolt(path, key)
	case KindSQLite:
		if strings.TrimSpace(path) == "" {
			return nil, goerrors.New("token db path is required", goerrors.CategoryBadInput)
		}
		return OpenSQLite(ctx, "file:"+path+"?cache=shared", key)
	default:
		return nil, goerrors.New("unknown token store: "+kind, goerrors.CategoryBadInput).
			WithTextCode("TOKEN_STORE_UNKNOWN")
	}
}
