// Package lock provides VariantLocker implementations that serialise ledger
// operations per product variant: an in-process keyed mutex and a Redis
// lease for multi-instance deployments.
package lock

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// orderedKeys drops nil and duplicate ids and sorts the rest. Acquiring in
// this order is what keeps two multi-variant updates from deadlocking.
func orderedKeys(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}
