// Package await blocks a request on the shared event channel until the
// result for a specific content hash arrives or a deadline passes.
package await

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/roost-io/roost/pkg/bus"
)

// ErrTimeout is returned when no matching result arrives before the deadline.
// Callers surface it as a gateway-timeout-class failure, never conflated with
// a generic internal error.
var ErrTimeout = errors.New("timed out waiting for result")

// Result scans a subscription for the first result event matching
// contentHash and returns it. Events of other types, or results for other
// hashes, are discarded. The wait races the subscription against an explicit
// deadline timer, so a silent bus still produces ErrTimeout rather than
// blocking on message arrival.
//
// The subscription must already be open - subscribing here, after the caller
// has published its process event, would widen the window in which a fast
// worker's result is lost. The caller owns the subscription and closes it.
//
// Context cancellation (e.g. the client disconnected) returns the context's
// error immediately.
func Result(ctx context.Context, sub *bus.Subscription, contentHash string, timeout time.Duration) (*bus.ResultEvent, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	events := sub.Events()
	errs := sub.Errors()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timer.C:
			return nil, ErrTimeout

		case err, ok := <-errs:
			if !ok {
				// Errors channel closed with the subscription; stop selecting on it
				errs = nil
				continue
			}
			// Malformed events are noise, not failures: skip them
			log.Printf("[DEBUG] Skipping malformed event: %v", err)

		case ev, ok := <-events:
			if !ok {
				// Subscription closed underneath us: no result can ever arrive
				return nil, fmt.Errorf("event subscription closed while waiting for result")
			}

			result, isResult := ev.(*bus.ResultEvent)
			if !isResult {
				continue
			}
			if result.ContentHash != contentHash {
				continue
			}
			return result, nil
		}
	}
}
