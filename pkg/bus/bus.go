package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Bus provides instance-scoped access to the shared event channel and the
// result cache. All keys and channels are automatically namespaced with the
// instance name. The bus is thread-safe and can be used concurrently from
// multiple goroutines.
type Bus struct {
	rdb          *redis.Client
	instanceName string
}

// New creates a new bus for the specified instance.
// The bus automatically namespaces all keys and channels with the instance name.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: Roost instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func New(redisOpts *redis.Options, instanceName string) (*Bus, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Bus{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the bus should not be used.
func (b *Bus) Close() error {
	return b.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
// Returns an error if Redis is not reachable.
func (b *Bus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Publish validates and publishes an event onto the shared channel.
// Delivery is best-effort, at-most-once: subscribers that are not listening
// at publish time never see the event, and no retry is attempted.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid %s event: %w", ev.Type(), err)
	}

	payload, err := EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Type(), err)
	}

	channel := EventsChannel(b.instanceName)
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Type(), err)
	}

	return nil
}

// StoreResult caches a result event so later duplicate requests can be served
// without republishing. The result is stored as a Redis hash at
// roost:{instance}:result:{hash}. Writing the same result twice is safe.
func (b *Bus) StoreResult(ctx context.Context, ev *ResultEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid result event: %w", err)
	}

	hash, err := ResultToHash(ev)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	key := ResultKey(b.instanceName, ev.ContentHash)
	if err := b.rdb.HSet(ctx, key, hash).Err(); err != nil {
		return fmt.Errorf("failed to write result to Redis: %w", err)
	}

	return nil
}

// GetResult retrieves a cached result by content hash.
// Returns (nil, redis.Nil) if no result has been cached for the hash.
// Use IsNotFound() to check for not-found errors.
func (b *Bus) GetResult(ctx context.Context, contentHash string) (*ResultEvent, error) {
	key := ResultKey(b.instanceName, contentHash)

	hashData, err := b.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read result from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	result, err := HashToResult(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize result: %w", err)
	}

	return result, nil
}

// ListResults returns all cached results for this instance, discovered via
// SCAN over the result key pattern. Order is unspecified.
func (b *Bus) ListResults(ctx context.Context) ([]*ResultEvent, error) {
	var results []*ResultEvent

	iter := b.rdb.Scan(ctx, 0, ResultKeyPattern(b.instanceName), 0).Iterator()
	for iter.Next(ctx) {
		hashData, err := b.rdb.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read result %s: %w", iter.Val(), err)
		}
		if len(hashData) == 0 {
			continue
		}

		result, err := HashToResult(hashData)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize result %s: %w", iter.Val(), err)
		}
		results = append(results, result)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan results: %w", err)
	}

	return results, nil
}

// Subscription represents an active Pub/Sub subscription to the shared
// event channel. Caller must call Close() when done to clean up resources.
// Subscriptions deliver decoded Event values via the Events() channel.
type Subscription struct {
	events <-chan Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of decoded events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include malformed payloads and unknown event types - these are
// non-fatal; the subscription continues and the offending message is skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe opens a subscription to the shared event channel for this instance.
// Returns a Subscription that delivers decoded events.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub
// (at-most-once delivery). Events published before Subscribe returns are
// never delivered - callers that publish and then wait must subscribe first.
func (b *Bus) Subscribe(ctx context.Context) (*Subscription, error) {
	channel := EventsChannel(b.instanceName)
	pubsub := b.rdb.Subscribe(ctx, channel)

	// Force the SUBSCRIBE command onto the wire before returning so the
	// caller can publish immediately after without missing its own events.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to event channel: %w", err)
	}

	eventsChan := make(chan Event, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				ev, err := DecodeEvent([]byte(msg.Payload))
				if err != nil {
					// Malformed payloads are noise, not errors: report and skip
					select {
					case errorsChan <- err:
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
// Use this to check if GetResult returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
