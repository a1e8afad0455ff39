package publishers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Event is the unit published to every configured transport: the full crawl
// batch of one producer cycle, keyed by source URL.
type Event struct {
	BatchID   string            `json:"batch_id"`
	FetchedAt time.Time         `json:"fetched_at"`
	Pages     map[string]string `json:"pages"`
}

// Publisher delivers events to one configured destination. Implementations
// are independent; a failure in one publisher never blocks another.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// EncodeEvent serializes an event to the wire form shared by all transports:
// base64-encoded UTF-8 JSON. Consumers must decode with DecodeEvent.
func EncodeEvent(evt Event) (string, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeEvent reverses EncodeEvent.
func DecodeEvent(payload []byte) (Event, error) {
	raw, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return Event{}, fmt.Errorf("decode event payload: %w", err)
	}

	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return evt, nil
}
