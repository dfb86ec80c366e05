// Package worker implements the out-of-process worker loop: subscribe to the
// shared event channel, answer each process event through the pipeline, and
// publish (and cache) the result event.
package worker

import (
	"context"
	"log"

	"github.com/roost-io/roost/internal/pipeline"
	"github.com/roost-io/roost/pkg/bus"
)

// Engine consumes process events and produces result events.
//
// Each process event is handled on its own goroutine so a slow document does
// not starve the subscription channel; the result event is published exactly
// once per completed run, correlated by content hash.
type Engine struct {
	bus      *bus.Bus
	answerer pipeline.Answerer
}

// New creates a worker engine over the given bus and answering pipeline.
func New(b *bus.Bus, answerer pipeline.Answerer) *Engine {
	return &Engine{
		bus:      b,
		answerer: answerer,
	}
}

// Start subscribes to the event channel and blocks until ctx is cancelled.
//
// Graceful shutdown sequence:
//  1. Context is cancelled (typically via SIGTERM signal)
//  2. The subscription's channels close
//  3. In-flight answer runs finish or are cancelled with the context
//  4. Start returns nil
func (e *Engine) Start(ctx context.Context) error {
	sub, err := e.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	log.Printf("[INFO] Worker started, listening for process events")

	events := sub.Events()
	errs := sub.Errors()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] Shutdown signal received, worker stopping")
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[DEBUG] Skipping malformed event: %v", err)

		case ev, ok := <-events:
			if !ok {
				log.Printf("[INFO] Event subscription closed, worker stopping")
				return nil
			}

			proc, isProcess := ev.(*bus.ProcessEvent)
			if !isProcess {
				// Result events from other workers also travel on this channel
				continue
			}

			go e.handle(ctx, proc)
		}
	}
}

// handle runs the pipeline for one process event and publishes the result.
func (e *Engine) handle(ctx context.Context, proc *bus.ProcessEvent) {
	log.Printf("[INFO] Processing %d questions for hash %s (%s)", len(proc.Questions), proc.ContentHash, proc.CanonicalPath)

	answers, err := e.answerer.Answer(ctx, proc.CanonicalPath, proc.Questions)
	if err != nil {
		log.Printf("[WARN] Pipeline failed for hash %s: %v", proc.ContentHash, err)
		return
	}

	result := &bus.ResultEvent{
		RequestID:   proc.RequestID,
		ContentHash: proc.ContentHash,
		Answers:     answers,
	}

	// Cache first so a gateway running the "cached" dedup policy can serve
	// repeat requests even if this publish is lost
	if err := e.bus.StoreResult(ctx, result); err != nil {
		log.Printf("[WARN] Failed to cache result for hash %s: %v", proc.ContentHash, err)
	}

	if err := e.bus.Publish(ctx, result); err != nil {
		log.Printf("[WARN] Failed to publish result for hash %s: %v", proc.ContentHash, err)
		return
	}

	log.Printf("[INFO] Published result for hash %s", proc.ContentHash)
}
