package dht

import "chordring/internal/protocol"

// successorList is the length-r ordered backup list of live successors
// (§3, §4.4). Element 0 is the current successor. Not safe for concurrent
// use; callers hold Node's lock.
type successorList struct {
	self     protocol.PeerRef
	capacity int
	entries  []protocol.PeerRef
}

func newSuccessorList(self protocol.PeerRef, capacity int, first protocol.PeerRef) *successorList {
	return &successorList{self: self, capacity: capacity, entries: []protocol.PeerRef{first}}
}

// head returns the current successor, element 0.
func (sl *successorList) head() protocol.PeerRef {
	return sl.entries[0]
}

// list returns a defensive copy of the whole list.
func (sl *successorList) list() []protocol.PeerRef {
	out := make([]protocol.PeerRef, len(sl.entries))
	copy(out, sl.entries)
	return out
}

// advanceTo replaces the head with a fresher successor learned from
// GetPredecessorResponse (§4.8), keeping the remaining backups in place.
func (sl *successorList) advanceTo(next protocol.PeerRef) {
	rest := sl.entries
	if len(rest) > 0 {
		rest = rest[1:]
	}
	sl.entries = dedupPrepend(next, rest, sl.self, sl.capacity)
}

// updateFrom replaces the list with [newHead] ++ successors, truncated to
// capacity, skipping duplicates of self (§4.4 update_from).
func (sl *successorList) updateFrom(newHead protocol.PeerRef, successors []protocol.PeerRef) {
	sl.entries = dedupPrepend(newHead, successors, sl.self, sl.capacity)
}


// dedupPrepend builds [head] ++ rest, skipping duplicates of head and of
// self, truncated to capacity. capacity <= 0 means unbounded.
func dedupPrepend(head protocol.PeerRef, rest []protocol.PeerRef, self protocol.PeerRef, capacity int) []protocol.PeerRef {
	out := make([]protocol.PeerRef, 0, len(rest)+1)
	out = append(out, head)
	seen := map[uint64]bool{uint64(head.ID): true}
	for _, p := range rest {
		if p.Equal(self) || seen[uint64(p.ID)] {
			continue
		}
		if capacity > 0 && len(out) >= capacity {
			break
		}
		seen[uint64(p.ID)] = true
		out = append(out, p)
	}
	return out
}
