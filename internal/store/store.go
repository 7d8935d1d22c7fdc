// Package store persists jobfill state in a JSON key-value store.
//
// Values are JSON documents addressed by key. Reads and writes of a key are
// independent and last-writer-wins; there are no transactions across keys.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Well-known keys.
const (
	KeyAppliedJobs     = "appliedJobs"
	KeyCurrentResume   = "currentResume"
	KeySelectedVersion = "selectedVersion"
	KeyBadge           = "badge"
	JobKeyPrefix       = "job_"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrStorageUnavailable is matched by every backend failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotFound means a required key is absent.
	ErrNotFound = errors.New("not found")
	// ErrUnknownDriver means Open was given an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store is a JSON key-value store.
type Store interface {
	// Get returns the raw JSON stored at key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the value at key.
	Set(ctx context.Context, key string, value []byte) error
	// Keys lists keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Error is a backend failure on one key.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports every backend failure as ErrStorageUnavailable.
func (e *Error) Is(target error) bool { return target == ErrStorageUnavailable }

// Open opens a store by driver name. dsn is ignored for memory, a file path
// for file and sqlite, and a connection URL for postgres.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		return NewFile(dsn)
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres, "postgresql":
		return ConnectPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// GetJSON decodes the value at key into dst.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, &Error{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
