package bus

import (
	"fmt"

	"github.com/google/uuid"
)

// EventType discriminates the messages carried on the shared channel.
type EventType string

const (
	// EventTypeProcess asks the worker pool to process a stored document.
	EventTypeProcess EventType = "process"

	// EventTypeResult carries the answers for a completed processing run.
	EventTypeResult EventType = "result"
)

// Event is the closed set of messages exchanged over the shared channel.
// Payloads are decoded once at the bus boundary; downstream logic switches
// on the concrete type rather than comparing string tags.
type Event interface {
	// Type returns the wire discriminator for this event.
	Type() EventType

	// Validate checks the event's field values before publishing.
	Validate() error
}

// ProcessEvent requests processing of a document identified by its content
// hash. It is published once per inbound request, whether the content is new
// or a duplicate - deduplication applies to storage, not to publishing.
type ProcessEvent struct {
	RequestID     string   `json:"request_id"`    // UUID correlating this request's events
	ContentHash   string   `json:"filehash"`      // SHA-256 hex digest of the document bytes
	CanonicalPath string   `json:"filepath"`      // Store-assigned location of the document
	Questions     []string `json:"questions"`     // Questions to answer, in caller order
}

// Type implements Event.
func (e *ProcessEvent) Type() EventType { return EventTypeProcess }

// Validate checks if the ProcessEvent has valid field values.
func (e *ProcessEvent) Validate() error {
	if !isValidUUID(e.RequestID) {
		return fmt.Errorf("invalid request ID: not a valid UUID")
	}
	if !IsValidContentHash(e.ContentHash) {
		return fmt.Errorf("invalid content hash: must be 64 hex characters")
	}
	if e.CanonicalPath == "" {
		return fmt.Errorf("canonical path cannot be empty")
	}
	return nil
}

// ResultEvent carries the answers produced for a document. It is published
// exactly once by the worker side per completed processing run, correlated to
// the ProcessEvent's content hash.
type ResultEvent struct {
	RequestID   string   `json:"request_id"` // UUID of the originating request
	ContentHash string   `json:"filehash"`   // SHA-256 hex digest of the document bytes
	Answers     []string `json:"answers"`    // One answer per question, in question order
}

// Type implements Event.
func (e *ResultEvent) Type() EventType { return EventTypeResult }

// Validate checks if the ResultEvent has valid field values.
func (e *ResultEvent) Validate() error {
	if !isValidUUID(e.RequestID) {
		return fmt.Errorf("invalid request ID: not a valid UUID")
	}
	if !IsValidContentHash(e.ContentHash) {
		return fmt.Errorf("invalid content hash: must be 64 hex characters")
	}
	return nil
}

// IsValidContentHash reports whether s is a well-formed SHA-256 hex digest:
// exactly 64 lowercase-or-uppercase hex characters.
func IsValidContentHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
