package dispatch

import (
	"github.com/sweeney/trunk-metrics/internal/notify"
	"github.com/sweeney/trunk-metrics/internal/store"
)

// Dispatcher applies decoded trunk metrics events to the aggregate store.
type Dispatcher struct {
	store *store.Store
}

// New creates a Dispatcher writing to the given store.
func New(st *store.Store) *Dispatcher {
	return &Dispatcher{store: st}
}

// Handle applies one event as a full counter replacement for its trunk.
// Upstream reports instantaneous absolute counts, so the pair always
// replaces the previous value; a metric absent from the event counts as
// zero. Events arrive from a single receive loop, so per-trunk order
// follows arrival order.
func (d *Dispatcher) Handle(evt notify.Event) {
	d.store.Update(evt.TrunkID, store.Counters{
		Inbound:  evt.MetricOr(notify.MetricInboundCalls, 0),
		Outbound: evt.MetricOr(notify.MetricOutboundCalls, 0),
	})
}
