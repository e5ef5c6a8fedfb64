package dispatch

import (
	"testing"

	"github.com/sweeney/trunk-metrics/internal/notify"
	"github.com/sweeney/trunk-metrics/internal/store"
)

func TestHandleReplacesCounters(t *testing.T) {
	st := store.New()
	d := New(st)

	d.Handle(notify.Event{TrunkID: "t1", Metrics: map[string]int64{
		notify.MetricInboundCalls:  3,
		notify.MetricOutboundCalls: 1,
	}})
	d.Handle(notify.Event{TrunkID: "t1", Metrics: map[string]int64{
		notify.MetricInboundCalls:  1,
		notify.MetricOutboundCalls: 4,
	}})

	if got := st.SnapshotByTrunk()["t1"]; got != (store.Counters{Inbound: 1, Outbound: 4}) {
		t.Errorf("expected (1,4), got %+v", got)
	}
}

func TestHandleAbsentMetricsCountAsZero(t *testing.T) {
	st := store.New()
	d := New(st)

	d.Handle(notify.Event{TrunkID: "t1", Metrics: map[string]int64{
		notify.MetricInboundCalls:  3,
		notify.MetricOutboundCalls: 2,
	}})
	d.Handle(notify.Event{TrunkID: "t1", Metrics: map[string]int64{
		notify.MetricOutboundCalls: 5,
	}})

	if got := st.SnapshotByTrunk()["t1"]; got != (store.Counters{Inbound: 0, Outbound: 5}) {
		t.Errorf("expected missing inbound to replace as zero, got %+v", got)
	}
}

func TestHandleIgnoresUnknownMetrics(t *testing.T) {
	st := store.New()
	d := New(st)

	d.Handle(notify.Event{TrunkID: "t1", Metrics: map[string]int64{
		notify.MetricInboundCalls: 2,
		"heldCallCount":           9,
	}})

	if got := st.SnapshotByTrunk()["t1"]; got != (store.Counters{Inbound: 2}) {
		t.Errorf("unknown metric leaked into counters: %+v", got)
	}
}
