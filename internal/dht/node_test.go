package dht

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chordring/internal/config"
	"chordring/internal/protocol"
	"chordring/internal/ring"
)

// §4.10 construction: a lone peer (no bootstrap) is its own predecessor, not
// predecessor-less, matching the §8 scenario-1 assertion predecessor.id == self.id.
func TestNewSetsSelfAsPredecessorForLoneRing(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	n := New(config.Defaults(), r, self, protocol.PeerRef{})

	pred, ok := n.Predecessor()
	require.True(t, ok)
	require.Equal(t, self, pred)
}

// A joining peer has no predecessor of its own yet; stabilize/Notify fill it
// in once the ring answers back.
func TestNewLeavesPredecessorUnsetWhenJoiningExistingRing(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	bootstrap := protocol.PeerRef{ID: 50, Addr: "bootstrap:1"}
	n := New(config.Defaults(), r, self, bootstrap)

	_, ok := n.Predecessor()
	require.False(t, ok)
}
