package dht

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chordring/internal/protocol"
	"chordring/internal/ring"
)

func TestNewFingerTableAllPointAtBootstrap(t *testing.T) {
	r := ring.New(6)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	bootstrap := protocol.PeerRef{ID: 20, Addr: "bootstrap:1"}

	ft := newFingerTable(r, self, bootstrap)

	require.Equal(t, int(r.Bits()), ft.len())
	for i := 0; i < ft.len(); i++ {
		require.Equal(t, bootstrap, ft.get(i))
		require.Equal(t, r.Add(self.ID, uint64(1)<<uint(i)), ft.startAt(i))
	}
}

func TestFingerTablePutReplacesOneEntry(t *testing.T) {
	r := ring.New(6)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	bootstrap := protocol.PeerRef{ID: 20, Addr: "bootstrap:1"}
	ft := newFingerTable(r, self, bootstrap)

	fresh := protocol.PeerRef{ID: 15, Addr: "fresh:1"}
	ft.put(2, fresh)

	require.Equal(t, fresh, ft.get(2))
	require.Equal(t, bootstrap, ft.get(1))
}

func TestClosestPrecedingFallsBackToSelf(t *testing.T) {
	r := ring.New(6)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	ft := newFingerTable(r, self, self)

	got := ft.closestPreceding(ring.ID(40), self)
	require.True(t, got.Equal(self))
}

func TestClosestPrecedingPicksHighestQualifyingFinger(t *testing.T) {
	r := ring.New(6)
	self := protocol.PeerRef{ID: 0, Addr: "self:1"}
	ft := newFingerTable(r, self, self)

	near := protocol.PeerRef{ID: 10, Addr: "near:1"}
	far := protocol.PeerRef{ID: 40, Addr: "far:1"}
	ft.put(0, near) // start = 1
	ft.put(5, far)  // start = 32

	got := ft.closestPreceding(ring.ID(50), self)
	require.Equal(t, far, got)
}
