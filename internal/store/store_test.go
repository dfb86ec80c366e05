package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roost-io/roost/internal/ledger"
)

const testHash = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

// writeTempFile creates a file outside the store directory, standing in for a
// freshly downloaded document.
func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "download")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "store")
		s, err := New(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, s.Dir())
		assert.DirExists(t, dir)
	})

	t.Run("rejects empty directory", func(t *testing.T) {
		_, err := New("")
		assert.Error(t, err)
	})
}

func TestPut(t *testing.T) {
	t.Run("new content gets document1 with default extension", func(t *testing.T) {
		s, err := New(t.TempDir())
		require.NoError(t, err)
		temp := writeTempFile(t, "hello")

		path, err := s.Put(temp, testHash, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(s.Dir(), "document1.pdf"), path)
		assert.FileExists(t, path)
		assert.NoFileExists(t, temp, "temp file should have been moved")

		l := ledger.Load(s.Dir())
		filename, ok := l.Lookup(testHash)
		assert.True(t, ok)
		assert.Equal(t, "document1.pdf", filename)
		assert.Equal(t, 2, l.NextID)
	})

	t.Run("extension hint is honored", func(t *testing.T) {
		s, err := New(t.TempDir())
		require.NoError(t, err)

		path, err := s.Put(writeTempFile(t, "doc"), testHash, ".docx")
		require.NoError(t, err)
		assert.Equal(t, "document1.docx", filepath.Base(path))
	})

	t.Run("duplicate hash returns existing path without mutation", func(t *testing.T) {
		s, err := New(t.TempDir())
		require.NoError(t, err)

		first, err := s.Put(writeTempFile(t, "same bytes"), testHash, "")
		require.NoError(t, err)

		secondTemp := writeTempFile(t, "same bytes")
		second, err := s.Put(secondTemp, testHash, ".txt")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.FileExists(t, secondTemp, "duplicate ingest must leave the temp file for the caller")

		l := ledger.Load(s.Dir())
		assert.Len(t, l.FilesByHash, 1)
		assert.Equal(t, 2, l.NextID)
	})

	t.Run("failed move leaves temp untouched and ledger unsaved", func(t *testing.T) {
		s, err := New(t.TempDir())
		require.NoError(t, err)

		missing := filepath.Join(t.TempDir(), "never-created")
		_, err = s.Put(missing, testHash, "")
		require.Error(t, err)
		assert.True(t, IsStorageError(err))

		l := ledger.Load(s.Dir())
		assert.Empty(t, l.FilesByHash)
		assert.Equal(t, 1, l.NextID)
	})

	t.Run("concurrent puts of distinct hashes get distinct filenames", func(t *testing.T) {
		s, err := New(t.TempDir())
		require.NoError(t, err)

		const n = 20
		paths := make([]string, n)
		errs := make([]error, n)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				hash := fmt.Sprintf("%064d", i)
				paths[i], errs[i] = s.Put(writeTempFile(t, fmt.Sprintf("content %d", i)), hash, "")
			}(i)
		}
		wg.Wait()

		seen := map[string]bool{}
		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			assert.False(t, seen[paths[i]], "canonical path %s assigned twice", paths[i])
			seen[paths[i]] = true
		}

		l := ledger.Load(s.Dir())
		assert.Len(t, l.FilesByHash, n)
		assert.Equal(t, n+1, l.NextID, "next_id must advance by exactly the number of puts")
	})

	t.Run("corrupt metadata recovers and ids restart at 1", func(t *testing.T) {
		s, err := New(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ledger.MetadataFilename), []byte("garbage"), 0o644))

		path, err := s.Put(writeTempFile(t, "doc"), testHash, "")
		require.NoError(t, err)
		assert.Equal(t, "document1.pdf", filepath.Base(path))
	})
}

func TestLookup(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	t.Run("unknown hash misses", func(t *testing.T) {
		_, ok := s.Lookup(testHash)
		assert.False(t, ok)
	})

	t.Run("known hash hits and repeated lookups agree", func(t *testing.T) {
		put, err := s.Put(writeTempFile(t, "doc"), testHash, "")
		require.NoError(t, err)

		first, ok := s.Lookup(testHash)
		require.True(t, ok)
		second, ok := s.Lookup(testHash)
		require.True(t, ok)

		assert.Equal(t, put, first)
		assert.Equal(t, first, second)
	})
}
