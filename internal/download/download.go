// Package download fetches a document over HTTP into a temp file, computing
// its SHA-256 while the bytes stream to disk. The whole file is never held in
// memory.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// DownloadError indicates the document could not be fetched from its URL.
// This is the caller's responsibility (bad URL, unreachable host, non-2xx
// status) and maps to a client-class error.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// IsDownloadError returns true if the error (or anything it wraps) is a
// DownloadError.
func IsDownloadError(err error) bool {
	var de *DownloadError
	return errors.As(err, &de)
}

// Fetch downloads url into a temp file and returns the file's path, the hex
// SHA-256 of its bytes, and the response headers (for extension sniffing).
// On any error the temp file is removed and nothing is left behind.
// The caller owns the returned temp file and must remove it once ingested or
// abandoned.
func Fetch(ctx context.Context, url string) (tempPath, contentHash string, header http.Header, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", nil, &DownloadError{URL: url, Err: err}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", nil, &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", nil, &DownloadError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	tmp, err := os.CreateTemp("", "roost-download-*")
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath = tmp.Name()

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return "", "", nil, fmt.Errorf("failed to stream document to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return "", "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	return tempPath, hex.EncodeToString(hasher.Sum(nil)), resp.Header, nil
}

// HashFile streams an existing local file through SHA-256 and returns the hex
// digest. Used when the document arrives by means other than Fetch.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
