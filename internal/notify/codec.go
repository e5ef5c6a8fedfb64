package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// topicPrefix and topicSuffix bracket the trunk ID in a metrics topic name.
const (
	topicPrefix = "v2.telephony.providers.edges.trunks."
	topicSuffix = ".metrics"
)

// Metric names carried by trunk metrics events.
const (
	MetricInboundCalls  = "inboundCallCount"
	MetricOutboundCalls = "outboundCallCount"
)

// ErrNotMetrics marks inbound frames that are valid protocol traffic but
// carry no trunk metrics (heartbeats, subscribe replies, channel metadata).
var ErrNotMetrics = errors.New("frame carries no trunk metrics")

// Event is a decoded trunk metrics notification.
type Event struct {
	TrunkID string
	Metrics map[string]int64
}

// Metric returns the named metric value and whether it was present.
func (e Event) Metric(name string) (int64, bool) {
	v, ok := e.Metrics[name]
	return v, ok
}

// MetricOr returns the named metric value, or def if absent.
func (e Event) MetricOr(name string, def int64) int64 {
	if v, ok := e.Metrics[name]; ok {
		return v
	}
	return def
}

// TopicForTrunk returns the notification topic for a trunk's metrics.
func TopicForTrunk(trunkID string) string {
	return topicPrefix + trunkID + topicSuffix
}

// TrunkIDFromTopic extracts the trunk ID from a metrics topic name.
func TrunkIDFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, topicPrefix) || !strings.HasSuffix(topic, topicSuffix) {
		return "", false
	}
	id := topic[len(topicPrefix) : len(topic)-len(topicSuffix)]
	if id == "" {
		return "", false
	}
	return id, true
}

// subscribeMessage is the frame sent to the notification channel to
// subscribe to a batch of topics. The correlation ID tags the batch for
// upstream log correlation only.
type subscribeMessage struct {
	ID            string   `json:"id"`
	Channel       string   `json:"channel"`
	CorrelationID string   `json:"correlationId"`
	Topics        []string `json:"topics"`
}

// BuildSubscribe encodes one subscribe frame covering the metrics topics
// for every given trunk, in order.
func BuildSubscribe(correlationID string, trunkIDs []string) ([]byte, error) {
	topics := make([]string, 0, len(trunkIDs))
	for _, id := range trunkIDs {
		topics = append(topics, TopicForTrunk(id))
	}
	msg := subscribeMessage{
		ID:            "subscribe",
		Channel:       "websocket",
		CorrelationID: correlationID,
		Topics:        topics,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding subscribe: %w", err)
	}
	return data, nil
}

// BuildPing returns the keep-alive frame recognized by the channel.
func BuildPing() []byte {
	return []byte(`{"id":"ping"}`)
}

// frame is the envelope of every inbound channel message.
type frame struct {
	TopicName string          `json:"topicName"`
	EventBody json.RawMessage `json:"eventBody"`
}

type eventBody struct {
	Trunk struct {
		ID string `json:"id"`
	} `json:"trunk"`
	Calls map[string]json.RawMessage `json:"calls"`
}

// Parse decodes a raw inbound frame into an Event.
//
// Frames on non-metrics topics (channel.metadata heartbeats, subscribe
// replies) return an error wrapping ErrNotMetrics. Malformed frames
// return a plain error; neither is fatal to the session. Metric values
// that are missing or not integers are treated as absent, not as errors.
func Parse(raw []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Event{}, fmt.Errorf("decoding frame: %w", err)
	}

	trunkID, ok := TrunkIDFromTopic(f.TopicName)
	if !ok {
		if f.TopicName != "" {
			return Event{}, fmt.Errorf("%w: topic %q", ErrNotMetrics, f.TopicName)
		}
		return Event{}, fmt.Errorf("frame has no topic name")
	}

	var body eventBody
	if len(f.EventBody) > 0 {
		if err := json.Unmarshal(f.EventBody, &body); err != nil {
			return Event{}, fmt.Errorf("decoding event body for %s: %w", f.TopicName, err)
		}
	}

	// The topic name is authoritative for the trunk ID; the body copy is
	// informational and may be absent.
	metrics := make(map[string]int64, len(body.Calls))
	for name, rawVal := range body.Calls {
		var v int64
		if err := json.Unmarshal(rawVal, &v); err != nil {
			continue
		}
		metrics[name] = v
	}

	return Event{TrunkID: trunkID, Metrics: metrics}, nil
}
