package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
)

var _ signup.TokenStore = &File{}

// File keeps tokens in a small JSON document keyed by storage key, so several
// keys can share one file.
type File struct {
	path string
	key  string
	mu   sync.Mutex
}

// NewFile returns a store backed by path. The file is created on first Save.
func NewFile(path, key string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, goerrors.New("token file path is required", goerrors.CategoryBadInput)
	}
	if key == "" {
		key = DefaultKey
	}
	return &File{path: filepath.Clean(path), key: key}, nil
}

func (f *File) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", err
	}
	return doc[f.key], nil
}

func (f *File) Save(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[f.key] = token
	return f.write(doc)
}

func (f *File) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[f.key]; !ok {
		return nil
	}
	delete(doc, f.key)
	return f.write(doc)
}

func (f *File) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read token file")
	}

	doc := map[string]string{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode token file")
	}
	return doc, nil
}

func (f *File) write(doc map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create token directory")
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode token file")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".token-*")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write token file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write token file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write token file")
	}
	if err := tmp.Close(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write token file")
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace token file")
	}
	return nil
}
