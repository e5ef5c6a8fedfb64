package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/trunk-metrics/internal/publisher"
	"github.com/sweeney/trunk-metrics/internal/store"
)

// Clock provides the current time. Defaults to time.Now; override in tests.
type Clock func() time.Time

// Reporter periodically publishes aggregate snapshots to MQTT so
// dashboards can consume them without touching the ingestion path. It
// only ever reads point-in-time snapshots from the store.
type Reporter struct {
	store    *store.Store
	pub      publisher.Publisher
	prefix   string
	interval time.Duration
	clock    Clock
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithClock sets the time source for snapshot timestamps.
func WithClock(c Clock) Option {
	return func(r *Reporter) { r.clock = c }
}

// New creates a Reporter publishing under the given topic prefix.
func New(st *store.Store, pub publisher.Publisher, prefix string, interval time.Duration, opts ...Option) *Reporter {
	r := &Reporter{
		store:    st,
		pub:      pub,
		prefix:   prefix,
		interval: interval,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run publishes snapshots on the reporter's interval until ctx is
// cancelled. Publish failures are logged; the next tick supersedes them.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.publishSnapshots(ctx); err != nil {
				log.Printf("publishing snapshots: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// snapshotPayload is the JSON structure published per trunk and per group.
type snapshotPayload struct {
	InboundCalls  int64  `json:"inbound_calls"`
	OutboundCalls int64  `json:"outbound_calls"`
	Timestamp     string `json:"timestamp"`
}

func (r *Reporter) publishSnapshots(ctx context.Context) error {
	ts := r.clock().UTC().Format(time.RFC3339)

	for group, c := range r.store.SnapshotByGroup() {
		topic := fmt.Sprintf("%s/trunk-groups/%s", r.prefix, group)
		if err := r.publish(ctx, topic, c, ts); err != nil {
			return err
		}
	}
	for trunkID, c := range r.store.SnapshotByTrunk() {
		topic := fmt.Sprintf("%s/trunks/%s", r.prefix, trunkID)
		if err := r.publish(ctx, topic, c, ts); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) publish(ctx context.Context, topic string, c store.Counters, ts string) error {
	data, err := json.Marshal(snapshotPayload{
		InboundCalls:  c.Inbound,
		OutboundCalls: c.Outbound,
		Timestamp:     ts,
	})
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}
	if err := r.pub.Publish(ctx, topic, data); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}
