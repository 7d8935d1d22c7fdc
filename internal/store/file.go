package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// File stores every key in one JSON document on disk. A sidecar lock file
// serializes readers and writers across processes; each Set rewrites the
// whole document. mu orders goroutines sharing one File, since the flock
// handle is shared by them.
type File struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFile returns a File store at path, creating parent directories.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, &Error{Op: "open", Err: errors.New("file store needs a path")}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	return &File{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path returns the document path.
func (f *File) Path() string { return f.path }

func (f *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, false, &Error{Op: "lock", Key: key, Err: err}
	}
	defer f.lock.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, false, &Error{Op: "get", Key: key, Err: err}
	}
	v, ok := doc[key]
	return v, ok, nil
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return &Error{Op: "set", Key: key, Err: errors.New("value is not valid JSON")}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return &Error{Op: "lock", Key: key, Err: err}
	}
	defer f.lock.Unlock()

	doc, err := f.read()
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	doc[key] = json.RawMessage(append([]byte(nil), value...))
	if err := f.write(doc); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (f *File) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, &Error{Op: "lock", Err: err}
	}
	defer f.lock.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, &Error{Op: "keys", Err: err}
	}
	return matchingKeys(doc, prefix), nil
}

func (f *File) Close() error { return f.lock.Close() }

func (f *File) read() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt store file %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *File) write(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
