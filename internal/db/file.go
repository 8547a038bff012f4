package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"usersvc/internal/model"
)

// DefaultUsersFile is the store location used when none is configured.
const DefaultUsersFile = "data/users.json"

// document is the on-disk layout.
type document struct {
	Users []model.User `json:"users"`
}

// FileBackend keeps the user collection in a single JSON document. Writes go
// to a temporary file in the same directory which is then renamed over the
// document, so readers observe either the old or the new collection.
type FileBackend struct {
	path string
	// mu orders initialization against saves so a late empty-document write
	// never replaces a freshly saved collection.
	mu sync.Mutex
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates a backend for the document at path.
func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = DefaultUsersFile
	}
	return &FileBackend{path: path}
}

// Path returns the document location.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.ensure(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	if doc.Users == nil {
		doc.Users = []model.User{}
	}
	return doc.Users, nil
}

func (b *FileBackend) Save(ctx context.Context, users []model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if users == nil {
		users = []model.User{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.write(document{Users: users})
}

// ensure writes an empty document when none exists yet.
func (b *FileBackend) ensure() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := os.Stat(b.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", b.path, err)
	}
	return b.write(document{Users: []model.User{}})
}

func (b *FileBackend) write(doc document) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}
