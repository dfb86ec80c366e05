// Package store implements the content-addressed document store. Files are
// kept under canonical names derived from a monotonically increasing id
// (document1.pdf, document2.docx, ...) with a durable hash-to-filename index
// maintained by the ledger package.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/roost-io/roost/internal/ledger"
)

// DefaultExtension is used when no extension hint is available for a document.
const DefaultExtension = ".pdf"

// StorageError indicates a failed content move or ledger persist.
// The request must be aborted; the caller's temp file is left untouched so a
// retry or cleanup remains possible.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError returns true if the error (or anything it wraps) is a
// StorageError. Callers use this to map storage failures to a server-class
// response distinct from download or timeout failures.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Store owns a directory of canonical files plus the ledger indexing them.
//
// The mutex is the single global critical section over ledger
// load-mutate-save. It is the sole mechanism preventing two concurrent
// requests from allocating the same id or canonical filename; no
// finer-grained locking is needed because ledger operations are cheap and
// infrequent relative to request volume.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Put ingests the file at tempPath under its content hash and returns the
// canonical path. If the hash is already known, the existing canonical path
// is returned, no filesystem or ledger mutation happens, and the temp file is
// left for the caller to clean up.
//
// For new content the next id is allocated, the file is renamed into the
// store as document<id><ext> (extensionHint falls back to DefaultExtension),
// and the ledger is persisted. On a rename failure the temp file is untouched
// and the ledger is not saved, so the caller can retry. The rename and the
// ledger save are not atomic together: a crash between them leaves an
// orphaned canonical file that is never referenced, because ids are never
// reused - the next ingestion of the same hash allocates a fresh id.
func (s *Store) Put(tempPath, contentHash, extensionHint string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := ledger.Load(s.dir)

	if filename, ok := l.Lookup(contentHash); ok {
		return filepath.Join(s.dir, filename), nil
	}

	ext := extensionHint
	if ext == "" {
		ext = DefaultExtension
	}
	filename := fmt.Sprintf("document%d%s", l.AllocateID(), ext)
	finalPath := filepath.Join(s.dir, filename)

	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", &StorageError{Op: "content move", Err: err}
	}

	l.Record(contentHash, filename)
	if err := ledger.Save(s.dir, l); err != nil {
		// The file is already in place but unindexed. Non-fatal for the
		// store's invariants (orphans are tolerated) but fatal for this
		// request, which cannot report a durable mapping.
		return "", &StorageError{Op: "ledger persist", Err: err}
	}

	return finalPath, nil
}

// Lookup returns the canonical path recorded for a content hash.
// Pure read against the ledger; no side effects beyond the read.
func (s *Store) Lookup(contentHash string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filename, ok := ledger.Load(s.dir).Lookup(contentHash)
	if !ok {
		return "", false
	}
	return filepath.Join(s.dir, filename), true
}
