// Package store persists search results as named JSON blobs, either as
// zstd-compressed files or as rows of a SQLite database.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no blob has the requested name
var ErrNotFound = errors.New("blob not found")

// BlobStore stores opaque payloads by name. Names may contain "/" to group
// related blobs.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Close() error
}

// Kinds accepted by Open
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open creates the blob store of the given kind rooted at path: a directory
// for KindFile, a database file for KindSQLite.
func Open(kind, path string) (BlobStore, error) {
	switch kind {
	case KindFile:
		return NewFileStore(path)
	case KindSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store kind %q (want %q or %q)", kind, KindFile, KindSQLite)
	}
}
