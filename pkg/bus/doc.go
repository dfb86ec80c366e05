// Package bus provides type-safe event definitions and Redis Pub/Sub plumbing
// for the Roost shared event channel.
//
// # Overview
//
// The bus is the single carrier for coordination between the gateway and the
// worker pool. The gateway publishes a process event for every inbound
// request; a worker picks it up, runs the answering pipeline, and publishes a
// result event correlated by content hash. Events are transient - the bus
// does not persist the event log, and delivery is at-most-once.
//
// # Core Concepts
//
// ProcessEvent asks the worker pool to process a document already ingested
// into the content store. It carries the content hash (the deduplication
// identity), the canonical path assigned by the store, and the questions.
//
// ResultEvent carries the answers for a completed run. Answers are ordered to
// match the questions on the originating process event.
//
// Both shapes travel on one channel as JSON with an "event_type"
// discriminator. The discriminator is decoded exactly once, at the bus
// boundary, into the closed Event variant - downstream code switches on
// concrete types rather than comparing string tags.
//
// # Result Cache
//
// Alongside Pub/Sub, the bus exposes a small result cache keyed by content
// hash (StoreResult/GetResult). Workers write completed results there so the
// gateway's "cached" deduplication policy can answer repeat requests without
// republishing.
//
// # Multi-Instance Support
//
// All Redis keys and the Pub/Sub channel are namespaced by instance name so
// multiple Roost instances can safely coexist on a single Redis server.
//
// # Redis Schema
//
// Event channel: roost:{instance_name}:events
// Cached results: roost:{instance_name}:result:{content_hash}
//
// # Known Limitations
//
// A result published before a subscriber attached is lost; there is no
// replay. Callers that publish a process event and then wait for its result
// must open their subscription before publishing (Subscribe confirms the
// SUBSCRIBE command on the wire before returning to make this ordering
// reliable). The timeout in the waiter is the only fallback for missed or
// dropped events.
package bus
