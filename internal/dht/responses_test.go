package dht

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chordring/internal/config"
	"chordring/internal/protocol"
	"chordring/internal/ring"
)

func TestAwaitResponseDeliversMatchingReply(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 1, Addr: "self:1"}
	cfg := config.Defaults()
	cfg.SendTimeout = 200 * time.Millisecond
	n := New(cfg, r, self, protocol.PeerRef{})

	ft := newFakeTransport()
	other := protocol.PeerRef{ID: 2, Addr: "other:1"}
	ft.sendFunc = func(addr string, env protocol.Envelope) error {
		go n.deliverPending(protocol.FindSuccessor, ring.ID(99), protocol.Response{
			Kind: protocol.FoundSuccessor,
			Peer: other,
			KeyID: ring.ID(99),
		})
		return nil
	}
	n.SetTransport(ft)

	resp, err := n.awaitResponse("other:1", protocol.FindSuccessor, ring.ID(99), protocol.Request{Kind: protocol.FindSuccessor, ID: ring.ID(99)})
	require.NoError(t, err)
	require.Equal(t, protocol.FoundSuccessor, resp.Kind)
	require.Equal(t, other, resp.Peer)
}

func TestAwaitResponseTimesOutWithoutReply(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 1, Addr: "self:1"}
	cfg := config.Defaults()
	cfg.SendTimeout = 20 * time.Millisecond
	n := New(cfg, r, self, protocol.PeerRef{})
	n.SetTransport(newFakeTransport())

	_, err := n.awaitResponse("other:1", protocol.FindSuccessor, ring.ID(5), protocol.Request{Kind: protocol.FindSuccessor, ID: ring.ID(5)})
	require.Error(t, err)
}

func TestFindSuccessorChasesAskFurtherThenFinds(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	cfg := config.Defaults()
	cfg.SendTimeout = 200 * time.Millisecond
	n := New(cfg, r, self, protocol.PeerRef{})

	hop := protocol.PeerRef{ID: 50, Addr: "hop:1"}
	owner := protocol.PeerRef{ID: 90, Addr: "owner:1"}
	nearSuccessor := protocol.PeerRef{ID: 15, Addr: "near:1"}

	// Give self a real (non-self) successor that does not own id=60, and
	// seed the finger table so the local lookup forwards to hop first.
	n.mu.Lock()
	n.successors.updateFrom(nearSuccessor, nil)
	n.fingers.put(n.fingers.len()-1, hop)
	n.mu.Unlock()

	calls := 0
	ft := newFakeTransport()
	ft.sendFunc = func(addr string, env protocol.Envelope) error {
		calls++
		req := env.Request
		if calls == 1 {
			go n.deliverPending(protocol.FindSuccessor, req.ID, protocol.Response{
				Kind: protocol.AskFurther, NextNode: owner, KeyID: req.ID,
			})
		} else {
			go n.deliverPending(protocol.FindSuccessor, req.ID, protocol.Response{
				Kind: protocol.FoundSuccessor, Peer: owner, KeyID: req.ID,
			})
		}
		return nil
	}
	n.SetTransport(ft)

	got, err := n.findSuccessor(ring.ID(60))
	require.NoError(t, err)
	require.Equal(t, owner, got)
	require.Equal(t, 2, calls)
}
