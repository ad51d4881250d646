// Package dht implements the Chord peer itself: ring state (§3), the nine
// request handlers and their response counterparts (§4.5, §4.7, §4.8), the
// maintenance loops (§4.9) and process lifecycle (§4.10).
//
// Grounded on the teacher's internal/dht.Node, generalized from the
// teacher's synchronous HTTP call/return shape to the connectionless,
// envelope-based transport required by §6 (REDESIGN FLAG R3): a Send never
// returns its answer directly, so outstanding requests are tracked in a
// pending table and resolved when the matching response is later handed to
// Receive by the transport's accept loop.
package dht

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"chordring/internal/config"
	"chordring/internal/protocol"
	"chordring/internal/ring"
)

// pendingKey correlates an outstanding request with the response that
// eventually answers it. The ring only ever has one request of a given kind
// in flight against a given target id at a time from this node's point of
// view, so (kind, id) is a sufficient correlation key without adding a
// wire-level request id to §4.5's envelope shape.
type pendingKey struct {
	kind protocol.RequestKind
	id   ring.ID
}

// Node is the process-local state of one Chord peer (§3). joined,
// predecessor, successors and fingers are read and written only while
// holding mu (store and pending have their own locks); §5's discipline is
// snapshot-under-lock, release, do I/O, reacquire-to-apply — mu must never
// be held across a Send, a sleep or a channel wait.
type Node struct {
	cfg config.Config
	r   ring.Ring

	self       protocol.PeerRef
	instanceID uuid.UUID
	transport  Transport

	mu          sync.RWMutex
	joined      bool
	predecessor *protocol.PeerRef
	successors  *successorList
	fingers     *fingerTable

	store *store

	pendingMu sync.Mutex
	pending   map[pendingKey]chan protocol.Response
}

// New constructs a Node for self. If bootstrap is the zero PeerRef, the node
// starts a new one-node ring (§4.1 create); otherwise every finger and the
// successor point at bootstrap until the join driver and stabilize converge
// them (§4.1 join, §4.9).
func New(cfg config.Config, r ring.Ring, self protocol.PeerRef, bootstrap protocol.PeerRef) *Node {
	seed := self
	joined := bootstrap.IsZero()
	if !joined {
		seed = bootstrap
	}

	n := &Node{
		cfg:        cfg,
		r:          r,
		self:       self,
		instanceID: uuid.New(),
		joined:     joined,
		successors: newSuccessorList(self, cfg.EffectiveSuccessorListLen(), seed),
		fingers:    newFingerTable(r, self, seed),
		store:      newStore(),
		pending:    make(map[pendingKey]chan protocol.Response),
	}
	if joined {
		// §4.10 construction: a lone peer is its own predecessor, not predecessor-less.
		n.predecessor = &self
	}
	return n
}

// SetTransport wires the network implementation in after construction, so
// Node and Transport can be built independently and cross-wired by main.
func (n *Node) SetTransport(t Transport) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transport = t
}

// Self returns this peer's own reference.
func (n *Node) Self() protocol.PeerRef { return n.self }

// Ring returns the identifier space this node was constructed with.
func (n *Node) Ring() ring.Ring { return n.r }

// ID is a shorthand for Self().ID.
func (n *Node) ID() ring.ID { return n.self.ID }

// Addr is a shorthand for Self().Addr.
func (n *Node) Addr() string { return n.self.Addr }

// InstanceID is a process-lifetime identifier distinct from the ring ID:
// two processes that bind the same address across a restart hash to the
// same ring.ID, but get different instance IDs, so log lines can tell a
// rejoin apart from a long-lived process when grepped together.
func (n *Node) InstanceID() uuid.UUID { return n.instanceID }

// Joined reports whether this node has completed its initial join handshake
// (§4.1); the maintenance loops leave stabilize/fix-fingers dormant until it
// has, per the join driver described in §4.9.
func (n *Node) Joined() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.joined
}

func (n *Node) setJoined(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.joined = v
}

// Predecessor returns the current predecessor, or false if none is known
// (a joining peer not yet notified, or a gap opened by check-predecessor, §4.9).
func (n *Node) Predecessor() (protocol.PeerRef, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.predecessor == nil {
		return protocol.PeerRef{}, false
	}
	return *n.predecessor, true
}

// setPredecessorLocked installs pred as the predecessor; callers must hold
// mu. pred == nil clears it (§4.9 check-predecessor).
func (n *Node) setPredecessorLocked(pred *protocol.PeerRef) {
	n.predecessor = pred
}

// Successor returns the current successor, element 0 of the successor list.
func (n *Node) Successor() protocol.PeerRef {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.successors.head()
}

// SuccessorList returns a defensive copy of the full successor list (§3, §4.4).
func (n *Node) SuccessorList() []protocol.PeerRef {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.successors.list()
}

// FingerTable returns a defensive copy of the routing table (§3, §4.3).
func (n *Node) FingerTable() []protocol.PeerRef {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.fingers.snapshot()
}

// String renders a human-readable dump of ring state, in the teacher's style
// of a multi-line node summary used for diagnostic logging.
func (n *Node) String() string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	pred := "none"
	if n.predecessor != nil {
		pred = fmt.Sprintf("%d (%s)", n.predecessor.ID, n.predecessor.Addr)
	}

	out := fmt.Sprintf("Node %d (%s) instance=%s\n", n.self.ID, n.self.Addr, n.instanceID)
	out += fmt.Sprintf("  predecessor: %s\n", pred)
	out += "  successors:\n"
	for i, s := range n.successors.list() {
		out += fmt.Sprintf("    [%d] %d (%s)\n", i, s.ID, s.Addr)
	}
	out += "  fingers:\n"
	for i := 0; i < n.fingers.len(); i++ {
		f := n.fingers.get(i)
		out += fmt.Sprintf("    [%d] start=%d -> %d (%s)\n", i, n.fingers.startAt(i), f.ID, f.Addr)
	}
	return out
}

// closestPrecedingLocked looks up the routing table entry closest to target
// without leaving self, falling back to successor if nothing in the finger
// table qualifies (§4.3). Callers must hold at least a read lock.
func (n *Node) closestPrecedingLocked(target ring.ID) protocol.PeerRef {
	candidate := n.fingers.closestPreceding(target, n.self)
	if candidate.Equal(n.self) {
		return n.successors.head()
	}
	return candidate
}

// ownsKeyLocked reports whether this node is responsible for id: either it
// is the sole member of the ring, or id falls in (predecessor, self] (§4.2
// invariant I2). Callers must hold at least a read lock.
func (n *Node) ownsKeyLocked(id ring.ID) bool {
	if n.successors.head().Equal(n.self) && (n.predecessor == nil || n.predecessor.Equal(n.self)) {
		return true
	}
	if n.predecessor == nil {
		return false
	}
	return n.r.InHalfOpenRight(n.predecessor.ID, n.self.ID, id)
}

// registerPending opens a wait channel for a (kind, id) correlation key
// before the matching request is sent, so a response racing the send cannot
// be missed (§5).
func (n *Node) registerPending(kind protocol.RequestKind, id ring.ID) chan protocol.Response {
	ch := make(chan protocol.Response, 1)
	n.pendingMu.Lock()
	n.pending[pendingKey{kind, id}] = ch
	n.pendingMu.Unlock()
	return ch
}

func (n *Node) unregisterPending(kind protocol.RequestKind, id ring.ID) {
	n.pendingMu.Lock()
	delete(n.pending, pendingKey{kind, id})
	n.pendingMu.Unlock()
}

// deliverPending routes an incoming response to whichever caller registered
// for (kind, id); it is a no-op if nothing is waiting (e.g. a duplicate or
// late reply after the waiter already timed out, §4.8 idempotency).
func (n *Node) deliverPending(kind protocol.RequestKind, id ring.ID, resp protocol.Response) bool {
	n.pendingMu.Lock()
	ch, ok := n.pending[pendingKey{kind, id}]
	n.pendingMu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- resp:
	default:
	}
	return true
}

// awaitResponse sends req to addr and blocks for the matching response up to
// the configured send timeout, following the teacher's fastClient/slowClient
// pattern of bounding every outbound RPC (generalized here to one timeout
// per correlation key rather than per-HTTP-method client tiers).
func (n *Node) awaitResponse(addr string, kind protocol.RequestKind, id ring.ID, req protocol.Request) (protocol.Response, error) {
	n.mu.RLock()
	transport := n.transport
	n.mu.RUnlock()

	ch := n.registerPending(kind, id)
	defer n.unregisterPending(kind, id)

	env := protocol.Envelope{Kind: protocol.KindRequest, Sender: n.self, Request: &req}
	if err := transport.Send(addr, env); err != nil {
		return protocol.Response{}, fmt.Errorf("dht: send %s to %s: %w", kind, addr, err)
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(n.cfg.SendTimeout):
		return protocol.Response{}, fmt.Errorf("dht: %s to %s timed out after %s", kind, addr, n.cfg.SendTimeout)
	}
}
