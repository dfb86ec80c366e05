package bus

import (
	"encoding/json"
	"fmt"
)

// Wire format and Redis hash serialization helpers
//
// Events travel on the shared channel as JSON objects carrying an "event_type"
// discriminator alongside the event's own fields. The discriminator is decoded
// once here at the bus boundary; subscribers receive concrete Event values.
//
// Cached results are stored as Redis hashes (string-to-string maps). The
// answers array is JSON-encoded into a single hash field, mirroring how
// individual fields stay queryable while complex structures stay flexible.

// envelope is the wire shape shared by all events.
type envelope struct {
	EventType EventType `json:"event_type"`
}

// EncodeEvent serializes an event for publishing, injecting the event_type
// discriminator into the JSON object.
func EncodeEvent(ev Event) ([]byte, error) {
	fields, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(fields, &obj); err != nil {
		return nil, fmt.Errorf("failed to reshape event: %w", err)
	}
	typeTag, err := json.Marshal(ev.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event type: %w", err)
	}
	obj["event_type"] = typeTag

	return json.Marshal(obj)
}

// DecodeEvent deserializes a wire payload into a concrete Event.
// Returns an error for malformed JSON or an unrecognized event_type;
// subscribers treat such payloads as noise and skip them.
func DecodeEvent(payload []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	switch env.EventType {
	case EventTypeProcess:
		var ev ProcessEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal process event: %w", err)
		}
		return &ev, nil
	case EventTypeResult:
		var ev ResultEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result event: %w", err)
		}
		return &ev, nil
	default:
		return nil, fmt.Errorf("unknown event type: %q", env.EventType)
	}
}

// ResultToHash converts a ResultEvent to a Redis hash format.
// The answers array is JSON-encoded.
func ResultToHash(ev *ResultEvent) (map[string]interface{}, error) {
	answersJSON, err := json.Marshal(ev.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	hash := map[string]interface{}{
		"request_id": ev.RequestID,
		"filehash":   ev.ContentHash,
		"answers":    string(answersJSON),
	}

	return hash, nil
}

// HashToResult converts a Redis hash to a ResultEvent struct.
// JSON fields are decoded back to Go types.
func HashToResult(hash map[string]string) (*ResultEvent, error) {
	var answers []string
	if answersJSON := hash["answers"]; answersJSON != "" {
		if err := json.Unmarshal([]byte(answersJSON), &answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
	}

	// Ensure we have an empty slice instead of nil for consistency
	if answers == nil {
		answers = []string{}
	}

	return &ResultEvent{
		RequestID:   hash["request_id"],
		ContentHash: hash["filehash"],
		Answers:     answers,
	}, nil
}
