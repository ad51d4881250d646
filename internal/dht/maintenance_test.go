package dht

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chordring/internal/config"
	"chordring/internal/protocol"
	"chordring/internal/ring"
)

func TestStepCheckPredecessorClearsDeadPredecessor(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	n := New(config.Defaults(), r, self, protocol.PeerRef{})

	pred := protocol.PeerRef{ID: 5, Addr: "pred:1"}
	n.mu.Lock()
	n.setPredecessorLocked(&pred)
	n.mu.Unlock()

	ft := newFakeTransport() // alive map defaults every address to false
	n.SetTransport(ft)

	n.stepCheckPredecessor()

	_, ok := n.Predecessor()
	require.False(t, ok)
}

func TestStepCheckPredecessorKeepsLivePredecessor(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	n := New(config.Defaults(), r, self, protocol.PeerRef{})

	pred := protocol.PeerRef{ID: 5, Addr: "pred:1"}
	n.mu.Lock()
	n.setPredecessorLocked(&pred)
	n.mu.Unlock()

	ft := newFakeTransport()
	ft.alive["pred:1"] = true
	n.SetTransport(ft)

	n.stepCheckPredecessor()

	got, ok := n.Predecessor()
	require.True(t, ok)
	require.Equal(t, pred, got)
}

// §3 invariant I1: fingers[0].node must always equal successors[0]. A round
// of stabilize that adopts a closer predecessor as the new successor must
// keep both in sync, not just seed fingers[0] at construction.
func TestStepStabilizeKeepsFingerZeroInSyncWithNewSuccessor(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	cfg := config.Defaults()
	cfg.SendTimeout = 200 * time.Millisecond
	n := New(cfg, r, self, protocol.PeerRef{})

	far := protocol.PeerRef{ID: 90, Addr: "far:1"}
	closer := protocol.PeerRef{ID: 20, Addr: "closer:1"}
	n.mu.Lock()
	n.successors.updateFrom(far, nil)
	n.mu.Unlock()

	ft := newFakeTransport()
	ft.alive[far.Addr] = true
	ft.sendFunc = func(addr string, env protocol.Envelope) error {
		req := env.Request
		switch req.Kind {
		case protocol.GetPredecessor:
			pred := closer
			go n.deliverPending(protocol.GetPredecessor, 0, protocol.Response{
				Kind: protocol.GetPredecessorResult, Predecessor: &pred,
			})
		case protocol.GetSuccessorList:
			go n.deliverPending(protocol.GetSuccessorList, 0, protocol.Response{
				Kind: protocol.GetSuccessorListResult, Successors: []protocol.PeerRef{far},
			})
		case protocol.Notify:
			go n.deliverPending(protocol.Notify, 0, protocol.Response{Kind: protocol.NotifyResult})
		}
		return nil
	}
	n.SetTransport(ft)

	require.NoError(t, n.stepStabilize())

	n.mu.RLock()
	head := n.successors.head()
	fingerZero := n.fingers.get(0)
	n.mu.RUnlock()

	require.Equal(t, closer, head)
	require.Equal(t, head, fingerZero)
}

// A stabilize round over a lone, just-created ring (successor == self) must
// still leave fingers[0] pointed at self, matching I1 in the base case.
func TestStepStabilizeKeepsFingerZeroInSyncForLoneRing(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	n := New(config.Defaults(), r, self, protocol.PeerRef{})
	n.SetTransport(newFakeTransport())

	require.NoError(t, n.stepStabilize())

	n.mu.RLock()
	head := n.successors.head()
	fingerZero := n.fingers.get(0)
	n.mu.RUnlock()

	require.Equal(t, self, head)
	require.Equal(t, head, fingerZero)
}

func TestStepFixFingerInstallsResolvedSuccessor(t *testing.T) {
	r := ring.New(8)
	self := protocol.PeerRef{ID: 10, Addr: "self:1"}
	cfg := config.Defaults()
	cfg.SendTimeout = 200 * time.Millisecond
	n := New(cfg, r, self, protocol.PeerRef{})

	resolved := protocol.PeerRef{ID: 77, Addr: "resolved:1"}
	nearSuccessor := protocol.PeerRef{ID: 15, Addr: "near:1"}
	n.mu.Lock()
	n.successors.updateFrom(nearSuccessor, nil)
	n.mu.Unlock()

	ft := newFakeTransport()
	ft.sendFunc = func(addr string, env protocol.Envelope) error {
		req := env.Request
		go n.deliverPending(protocol.FindSuccessorFinger, req.FingerID, protocol.Response{
			Kind: protocol.FoundSuccessorFinger, Peer: resolved, Index: req.Index, FingerID: req.FingerID,
		})
		return nil
	}
	n.SetTransport(ft)

	n.stepFixFinger(3)

	n.mu.RLock()
	got := n.fingers.get(3)
	n.mu.RUnlock()
	require.Equal(t, resolved, got)
}
