package tokenstore

import (
	"context"
	"sync"

	signup "github.com/goliatone/go-signup"
)

var _ signup.TokenStore = &Memory{}

// Memory keeps the token in process. Nothing survives a restart.
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns a store seeded with token.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) Save(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
