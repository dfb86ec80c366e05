package bus

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name to enable
// multiple Roost instances to safely coexist on a single Redis server.
//
// Key pattern: roost:{instance_name}:{entity}:{content_hash}
// Channel pattern: roost:{instance_name}:events

// EventsChannel returns the Pub/Sub channel name for the shared event channel.
// Both process and result events travel on this single channel.
// Pattern: roost:{instance_name}:events
func EventsChannel(instanceName string) string {
	return fmt.Sprintf("roost:%s:events", instanceName)
}

// ResultKey returns the Redis key for a cached result.
// Pattern: roost:{instance_name}:result:{content_hash}
func ResultKey(instanceName, contentHash string) string {
	return fmt.Sprintf("roost:%s:result:%s", instanceName, contentHash)
}

// ResultKeyPattern returns the SCAN match pattern covering all cached results
// for an instance.
func ResultKeyPattern(instanceName string) string {
	return fmt.Sprintf("roost:%s:result:*", instanceName)
}
