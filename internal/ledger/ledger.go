// Package ledger persists the durable content-hash index backing the content
// store. The on-disk form is a single meta.json in the store directory:
//
//	{"files_by_hash": {<hex-hash>: {"generic_filename": <string>}}, "next_id": <int>}
//
// Load never fails: an absent, corrupt, or legacy-shaped file is treated as a
// recovery condition and replaced with a fresh ledger, not an error.
package ledger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// MetadataFilename is the name of the ledger file inside the store directory.
const MetadataFilename = "meta.json"

// Entry records the canonical filename assigned to one content hash.
type Entry struct {
	GenericFilename string `json:"generic_filename"`
}

// Ledger is the in-memory form of the hash index plus the id counter.
// It is not safe for concurrent use; callers serialize access through the
// content store's critical section.
type Ledger struct {
	FilesByHash map[string]Entry `json:"files_by_hash"`
	NextID      int              `json:"next_id"`
}

// NewLedger returns an empty ledger with the id counter at its initial value.
func NewLedger() *Ledger {
	return &Ledger{
		FilesByHash: map[string]Entry{},
		NextID:      1,
	}
}

// Lookup returns the canonical filename recorded for a content hash.
// The second return value reports whether the hash is known.
func (l *Ledger) Lookup(contentHash string) (string, bool) {
	entry, ok := l.FilesByHash[contentHash]
	if !ok {
		return "", false
	}
	return entry.GenericFilename, true
}

// AllocateID returns the next id and advances the counter.
// Ids are never reused, even across crash-recovery reinitialization of the
// ledger file - see the package comment on Save ordering.
func (l *Ledger) AllocateID() int {
	id := l.NextID
	l.NextID++
	return id
}

// Record maps a content hash to its canonical filename.
func (l *Ledger) Record(contentHash, genericFilename string) {
	l.FilesByHash[contentHash] = Entry{GenericFilename: genericFilename}
}

// Load reads the ledger from dir. It never fails: a missing file, unreadable
// file, invalid JSON, or a legacy shape lacking files_by_hash all yield a
// fresh ledger. Degradation is logged so recovery is visible in test output
// and operations, but it is not surfaced as an error.
func Load(dir string) *Ledger {
	path := filepath.Join(dir, MetadataFilename)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] Failed to read %s, reinitializing ledger: %v", path, err)
		}
		return NewLedger()
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		log.Printf("[WARN] Invalid JSON in %s, reinitializing ledger: %v", path, err)
		return NewLedger()
	}

	// Legacy shapes lacking files_by_hash are discarded, never migrated
	if l.FilesByHash == nil {
		log.Printf("[WARN] Legacy metadata format in %s, reinitializing ledger", path)
		return NewLedger()
	}

	if l.NextID < 1 {
		l.NextID = 1
	}

	return &l
}

// Save writes the full ledger to dir atomically: the JSON is written to a
// temp file in the same directory and renamed over meta.json, so concurrent
// readers never observe a partial write.
func Save(dir string, l *Ledger) error {
	data, err := json.MarshalIndent(l, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	tmp, err := os.CreateTemp(dir, MetadataFilename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp metadata file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp metadata file: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, MetadataFilename)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace metadata file: %w", err)
	}

	return nil
}
