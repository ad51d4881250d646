package dht

import (
	"sync"

	"chordring/internal/protocol"
	"chordring/internal/ring"
)

// store is the local mapping from key id to opaque payload (§3 "local key
// store handle", C5). It has its own lock, independent of Node's, since
// owned-range recomputation (range extraction for hand-off) only needs a
// predecessor/self pair snapshotted under Node's lock, not the lock itself.
type store struct {
	mu   sync.RWMutex
	data map[ring.ID][]byte
}

func newStore() *store {
	return &store{data: make(map[ring.ID][]byte)}
}

func (s *store) put(id ring.ID, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.data[id] = cp
}

func (s *store) get(id ring.ID) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[id]
	return v, ok
}

func (s *store) delete(id ring.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.data[id]
	delete(s.data, id)
	return existed
}

// takeRange extracts and removes every entry k with r.InHalfOpenRight(lo, hi, k)
// — the set that must hand off to a new predecessor on a Notify-driven
// ownership change (§4.7).
func (s *store) takeRange(r ring.Ring, lo, hi ring.ID) []protocol.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []protocol.Entry
	for k, v := range s.data {
		if r.InHalfOpenRight(lo, hi, k) {
			cp := make([]byte, len(v))
			copy(cp, v)
			out = append(out, protocol.Entry{KeyID: k, Payload: cp})
			delete(s.data, k)
		}
	}
	return out
}

// absorb installs entries handed off from a predecessor (DHTTakeOverKeys).
func (s *store) absorb(entries []protocol.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		cp := make([]byte, len(e.Payload))
		copy(cp, e.Payload)
		s.data[e.KeyID] = cp
	}
}

// all returns every stored entry, used by graceful shutdown (§4.10) to hand
// the whole store to the successor.
func (s *store) all() []protocol.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]protocol.Entry, 0, len(s.data))
	for k, v := range s.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		out = append(out, protocol.Entry{KeyID: k, Payload: cp})
	}
	return out
}
