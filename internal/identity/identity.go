package identity

import (
	"context"
	"log"
)

// Directory resolves a trunk ID to its trunk-group name.
type Directory interface {
	LookupTrunkGroup(ctx context.Context, trunkID string) (string, error)
}

// Resolve builds the trunk-to-group identity map for a set of trunks.
//
// Lookups that fail are logged and left out of the map; the trunk keeps
// reporting per-trunk counters but contributes to no group aggregate
// until a later session resolves it.
func Resolve(ctx context.Context, dir Directory, trunkIDs []string) map[string]string {
	m := make(map[string]string, len(trunkIDs))
	for _, id := range trunkIDs {
		if ctx.Err() != nil {
			return m
		}
		group, err := dir.LookupTrunkGroup(ctx, id)
		if err != nil {
			log.Printf("resolving trunk %s: %v, leaving ungrouped", id, err)
			continue
		}
		m[id] = group
	}
	return m
}
