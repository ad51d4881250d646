package dht

import (
	"chordring/internal/protocol"
	"chordring/internal/ring"
)

// fingerEntry is one routing pointer (§3 FingerEntry). start is fixed at
// construction and never mutated; node is the mutable routing target.
type fingerEntry struct {
	start ring.ID
	node  protocol.PeerRef
}

// fingerTable is the ordered table of m routing pointers (§4.3). It is not
// safe for concurrent use; callers hold Node's lock.
type fingerTable struct {
	r       ring.Ring
	self    ring.ID
	entries []fingerEntry
}

// newFingerTable constructs a table of length m with every entry pointing at
// bootstrap (§4.3 new).
func newFingerTable(r ring.Ring, self protocol.PeerRef, bootstrap protocol.PeerRef) *fingerTable {
	m := r.Bits()
	entries := make([]fingerEntry, m)
	for i := range entries {
		entries[i] = fingerEntry{
			start: r.Add(self.ID, uint64(1)<<uint(i)),
			node:  bootstrap,
		}
	}
	return &fingerTable{r: r, self: self.ID, entries: entries}
}

// len returns m.
func (ft *fingerTable) len() int { return len(ft.entries) }

// startAt returns start_i.
func (ft *fingerTable) startAt(i int) ring.ID { return ft.entries[i].start }

// get returns the current routing target at index i.
func (ft *fingerTable) get(i int) protocol.PeerRef { return ft.entries[i].node }

// put replaces entry i (§4.3 put).
func (ft *fingerTable) put(i int, node protocol.PeerRef) {
	ft.entries[i].node = node
}

// closestPreceding returns the PeerRef whose id is closest to target while
// still lying in (self, target), scanning from m-1 down to 0 (§4.3). Falls
// back to self if no entry qualifies.
func (ft *fingerTable) closestPreceding(target ring.ID, self protocol.PeerRef) protocol.PeerRef {
	for i := len(ft.entries) - 1; i >= 0; i-- {
		candidate := ft.entries[i].node
		if ft.r.InOpenInterval(ft.self, target, candidate.ID) {
			return candidate
		}
	}
	return self
}

// snapshot copies every entry's node, used when a maintenance loop releases
// the Node lock before I/O (§5 snapshot-release-act-reacquire).
func (ft *fingerTable) snapshot() []protocol.PeerRef {
	out := make([]protocol.PeerRef, len(ft.entries))
	for i, e := range ft.entries {
		out[i] = e.node
	}
	return out
}
