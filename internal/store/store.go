package store

import "sync"

// Counters holds the latest absolute call counts reported for a trunk.
// Values are full replacements from upstream, never deltas.
type Counters struct {
	Inbound  int64
	Outbound int64
}

// Add returns the element-wise sum of two counter pairs.
func (c Counters) Add(o Counters) Counters {
	return Counters{Inbound: c.Inbound + o.Inbound, Outbound: c.Outbound + o.Outbound}
}

// Store aggregates per-trunk call counters and exposes consistent
// point-in-time snapshots keyed by trunk ID or trunk-group name.
//
// One writer (the event dispatcher) and any number of snapshot readers
// may use a Store concurrently. Counters survive channel reconnects;
// only the identity map is replaced per session.
type Store struct {
	mu     sync.RWMutex
	trunks map[string]Counters
	groups map[string]string // trunk ID -> group name
	known  map[string]struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		trunks: make(map[string]Counters),
		groups: make(map[string]string),
		known:  make(map[string]struct{}),
	}
}

// SetIdentityMap replaces the trunk-to-group mapping and registers every
// group name it mentions. Registered groups appear in SnapshotByGroup
// even when no mapped trunk has reported counters yet.
func (s *Store) SetIdentityMap(m map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = make(map[string]string, len(m))
	for trunkID, group := range m {
		s.groups[trunkID] = group
		s.known[group] = struct{}{}
	}
}

// RegisterGroups pre-seeds group names so they show up in group snapshots
// with zero counters before any trunk maps to them.
func (s *Store) RegisterGroups(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		s.known[n] = struct{}{}
	}
}

// Group returns the group name a trunk is currently mapped to.
func (s *Store) Group(trunkID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[trunkID]
	return g, ok
}

// Update replaces the counters for a trunk. The pair is applied
// atomically; a concurrent snapshot sees either both values or neither.
func (s *Store) Update(trunkID string, c Counters) {
	s.mu.Lock()
	s.trunks[trunkID] = c
	s.mu.Unlock()
}

// SnapshotByTrunk returns a copy of the per-trunk counters.
func (s *Store) SnapshotByTrunk() map[string]Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]Counters, len(s.trunks))
	for id, c := range s.trunks {
		snap[id] = c
	}
	return snap
}

// SnapshotByGroup sums per-trunk counters into their groups under a
// single lock hold, so the result is consistent with one instant of the
// per-trunk state. Trunks without a group mapping are excluded;
// registered groups with no reporting trunks appear with zero counters.
func (s *Store) SnapshotByGroup() map[string]Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]Counters, len(s.known))
	for g := range s.known {
		snap[g] = Counters{}
	}
	for id, c := range s.trunks {
		g, ok := s.groups[id]
		if !ok {
			continue
		}
		snap[g] = snap[g].Add(c)
	}
	return snap
}
