// Package coordinator orchestrates one document request end to end: ledger
// check, content-store ingestion, process-event publishing, and the blocking
// wait for the matching result event.
//
// Each request moves through the states
//
//	LedgerCheck -> Publishing(new|duplicate) -> Waiting -> Resolved|TimedOut|Failed
//
// Hashing happens upstream (the download layer streams bytes through SHA-256
// before the coordinator is invoked), so a coordinator request always arrives
// with its content hash already computed.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/roost-io/roost/internal/await"
	"github.com/roost-io/roost/internal/config"
	"github.com/roost-io/roost/internal/store"
	"github.com/roost-io/roost/pkg/bus"
)

// Notifier receives human-readable summaries of completed or failed runs.
// Notification is a side effect: failures here are logged and never affect
// the response to the caller.
type Notifier interface {
	NotifyAnswers(ctx context.Context, questions, answers []string) error
	NotifyFailure(ctx context.Context, message string) error
}

// Request describes one inbound document-processing request.
// TempPath points at the downloaded file; ContentHash is its SHA-256 hex
// digest, computed while the bytes were streamed to disk.
type Request struct {
	TempPath      string   // Local path of the downloaded file
	ContentHash   string   // 64-char hex SHA-256 of the file bytes
	ExtensionHint string   // Extension including the dot, or "" for default
	Questions     []string // Questions to answer, in caller order
}

// Outcome is the structured success payload for a resolved request.
type Outcome struct {
	RequestID     string   // UUID correlating the request's events
	ContentHash   string   // Deduplication identity of the document
	CanonicalPath string   // Store-assigned document location
	Answers       []string // One answer per question, in question order
	Duplicate     bool     // Content hash was already in the ledger
	FromCache     bool     // Answers came from the result cache, no publish
}

// Coordinator wires the content store, the event bus, and the notifier into
// the per-request coordination flow. It is safe for concurrent use; the
// store's critical section is the only shared mutable state.
type Coordinator struct {
	bus      *bus.Bus
	store    *store.Store
	notifier Notifier
	timeout  time.Duration
	policy   string
}

// New creates a coordinator. notifier may be nil to disable notifications.
// policy selects duplicate handling: config.DedupRepublish or config.DedupCached.
func New(b *bus.Bus, s *store.Store, notifier Notifier, timeout time.Duration, policy string) *Coordinator {
	return &Coordinator{
		bus:      b,
		store:    s,
		notifier: notifier,
		timeout:  timeout,
		policy:   policy,
	}
}

// Run coordinates one request and blocks until the answers arrive, the
// timeout elapses, or ctx is cancelled.
//
// The subscription is opened before the process event is published - the
// reverse ordering would lose any result a fast worker publishes in between.
// Publish failures are absorbed: the store work is already durable and a
// worker may still pick up the document by other means, so the request
// proceeds to Waiting and the timeout is the fallback.
func (c *Coordinator) Run(ctx context.Context, req *Request) (*Outcome, error) {
	if !bus.IsValidContentHash(req.ContentHash) {
		return nil, fmt.Errorf("invalid content hash: %q", req.ContentHash)
	}

	outcome := &Outcome{
		RequestID:   uuid.New().String(),
		ContentHash: req.ContentHash,
	}

	// LedgerCheck: hit -> duplicate path, miss -> new path. The store's
	// critical section serializes the load-mutate-save against concurrent
	// requests; Put re-checks under the lock, so a racing ingest of the
	// same hash simply resolves to the existing canonical path.
	canonicalPath, existed := c.store.Lookup(req.ContentHash)
	outcome.Duplicate = existed

	if existed && c.policy == config.DedupCached {
		cached, err := c.bus.GetResult(ctx, req.ContentHash)
		if err == nil {
			log.Printf("[INFO] Serving cached result for hash %s", req.ContentHash)
			outcome.CanonicalPath = canonicalPath
			outcome.Answers = cached.Answers
			outcome.FromCache = true
			c.notifyAnswers(ctx, req.Questions, cached.Answers)
			return outcome, nil
		}
		if !bus.IsNotFound(err) {
			log.Printf("[WARN] Result cache lookup failed, falling back to republish: %v", err)
		}
	}

	if !existed {
		var err error
		canonicalPath, err = c.store.Put(req.TempPath, req.ContentHash, req.ExtensionHint)
		if err != nil {
			c.notifyFailure(ctx, fmt.Sprintf("Storage failure for hash %s: %v", req.ContentHash, err))
			return nil, err
		}
	}
	outcome.CanonicalPath = canonicalPath

	// Subscribe before publishing so the result of a fast worker is not lost
	sub, err := c.bus.Subscribe(ctx)
	if err != nil {
		c.notifyFailure(ctx, fmt.Sprintf("Event subscription failed for hash %s: %v", req.ContentHash, err))
		return nil, fmt.Errorf("failed to subscribe for result: %w", err)
	}
	defer sub.Close()

	ev := &bus.ProcessEvent{
		RequestID:     outcome.RequestID,
		ContentHash:   req.ContentHash,
		CanonicalPath: canonicalPath,
		Questions:     req.Questions,
	}
	if err := c.bus.Publish(ctx, ev); err != nil {
		// Best-effort: the document is durably stored, a worker may still
		// process it. The timeout below bounds the wait either way.
		log.Printf("[WARN] Failed to publish process event for hash %s: %v", req.ContentHash, err)
	}

	result, err := await.Result(ctx, sub, req.ContentHash, c.timeout)
	if err != nil {
		c.notifyFailure(ctx, fmt.Sprintf("No result for hash %s: %v", req.ContentHash, err))
		return nil, err
	}

	outcome.Answers = result.Answers
	c.notifyAnswers(ctx, req.Questions, result.Answers)
	return outcome, nil
}

func (c *Coordinator) notifyAnswers(ctx context.Context, questions, answers []string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyAnswers(ctx, questions, answers); err != nil {
		log.Printf("[WARN] Failed to send answers notification: %v", err)
	}
}

func (c *Coordinator) notifyFailure(ctx context.Context, message string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyFailure(ctx, message); err != nil {
		log.Printf("[WARN] Failed to send failure notification: %v", err)
	}
}
