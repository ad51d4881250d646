package dht

import (
	"chordring/internal/logging"
	"chordring/internal/protocol"
	"chordring/internal/ring"
)

// Receive implements Transport.Receiver: every accepted envelope is handed
// here synchronously by the accept loop (§4.6). A request is answered
// in-line and the reply sent back to its sender; a response is routed to
// whichever local waiter registered for it (§4.8); a Ping is a no-op beyond
// having kept the connection's liveness check satisfied.
func (n *Node) Receive(env protocol.Envelope) {
	switch env.Kind {
	case protocol.KindRequest:
		if env.Request == nil {
			return
		}
		resp := n.handleRequest(env.Sender, *env.Request)
		n.mu.RLock()
		transport := n.transport
		n.mu.RUnlock()
		if transport == nil {
			return
		}
		out := protocol.Envelope{Kind: protocol.KindResponse, Sender: n.self, Response: &resp}
		if err := transport.Send(env.Sender.Addr, out); err != nil {
			logging.Transport.Printf("reply to %s (%s): %v", env.Sender.Addr, resp.Kind, err)
		}
	case protocol.KindResponse:
		if env.Response == nil {
			return
		}
		n.handleResponse(*env.Response)
	case protocol.KindPing:
		// liveness only; IsAlive already observed the connection succeed.
	}
}

// handleRequest dispatches one of the nine request kinds of §4.5 to its
// handler and returns the matching response or AskFurther* forwarding
// instruction. Every handler here is pure with respect to the network: it
// only touches local state and returns an answer, never blocks on I/O,
// which is what keeps the single Node lock safe to hold across dispatch.
func (n *Node) handleRequest(from protocol.PeerRef, req protocol.Request) protocol.Response {
	switch req.Kind {
	case protocol.FindSuccessor:
		return n.handleFindSuccessor(req)
	case protocol.FindSuccessorFinger:
		return n.handleFindSuccessorFinger(req)
	case protocol.GetPredecessor:
		return n.handleGetPredecessor()
	case protocol.Notify:
		return n.handleNotify(req)
	case protocol.GetSuccessorList:
		return n.handleGetSuccessorList()
	case protocol.DHTStoreKey:
		return n.handleDHTStoreKey(req)
	case protocol.DHTFindKey:
		return n.handleDHTFindKey(req)
	case protocol.DHTDeleteKey:
		return n.handleDHTDeleteKey(req)
	case protocol.DHTTakeOverKeys:
		return n.handleDHTTakeOverKeys(req)
	default:
		return protocol.Response{Kind: protocol.ResponseKind(""), Sender: n.self}
	}
}

// handleFindSuccessor answers or forwards a lookup for req.ID (§4.5, §4.7).
// If the id falls in (self, successor], the successor owns it and is
// returned; otherwise the closest preceding finger is returned as an
// AskFurther hop for the caller to chase.
func (n *Node) handleFindSuccessor(req protocol.Request) protocol.Response {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.r.InHalfOpenRight(n.self.ID, n.successors.head().ID, req.ID) || n.successors.head().Equal(n.self) {
		return protocol.Response{
			Kind:   protocol.FoundSuccessor,
			Sender: n.self,
			Peer:   n.successors.head(),
			KeyID:  req.ID,
		}
	}

	next := n.closestPrecedingLocked(req.ID)
	return protocol.Response{
		Kind:     protocol.AskFurther,
		Sender:   n.self,
		NextNode: next,
		KeyID:    req.ID,
	}
}

// handleFindSuccessorFinger is FindSuccessor's twin used by fix-fingers
// (§4.9): it carries the finger index through so the originator can apply
// the eventual FoundSuccessorFinger directly to finger[Index] without having
// to recompute which entry the lookup was for.
func (n *Node) handleFindSuccessorFinger(req protocol.Request) protocol.Response {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.r.InHalfOpenRight(n.self.ID, n.successors.head().ID, req.FingerID) || n.successors.head().Equal(n.self) {
		return protocol.Response{
			Kind:     protocol.FoundSuccessorFinger,
			Sender:   n.self,
			Peer:     n.successors.head(),
			Index:    req.Index,
			FingerID: req.FingerID,
		}
	}

	next := n.closestPrecedingLocked(req.FingerID)
	return protocol.Response{
		Kind:     protocol.AskFurtherFinger,
		Sender:   n.self,
		NextNode: next,
		Index:    req.Index,
		FingerID: req.FingerID,
	}
}

// handleGetPredecessor answers with this node's predecessor, or a zero/nil
// Predecessor if none is known yet (§4.5, §4.8).
func (n *Node) handleGetPredecessor() protocol.Response {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var pred *protocol.PeerRef
	if n.predecessor != nil {
		p := *n.predecessor
		pred = &p
	}
	return protocol.Response{
		Kind:        protocol.GetPredecessorResult,
		Sender:      n.self,
		Predecessor: pred,
	}
}

// handleNotify accepts req.Node as the new predecessor if it is closer than
// the current one (§4.8), and on acceptance hands off any keys that now
// belong to it (§4.7, REDESIGN FLAG R2). It always returns a plain
// NotifyResponse; there is no relay or forwarding for Notify.
func (n *Node) handleNotify(req protocol.Request) protocol.Response {
	candidate := req.Node

	n.mu.Lock()
	accept := n.predecessor == nil || n.r.InOpenInterval(n.predecessor.ID, n.self.ID, candidate.ID)
	var handoffLo ring.ID
	if accept {
		old := n.predecessor
		if old != nil {
			handoffLo = old.ID
		} else {
			handoffLo = n.self.ID
		}
		n.setPredecessorLocked(&candidate)
	}
	n.mu.Unlock()

	if accept {
		logging.Stabilize.Printf("accepted predecessor %d (%s)", candidate.ID, candidate.Addr)
		// candidate now owns everything previously ours in (handoffLo, candidate.ID].
		entries := n.store.takeRange(n.r, handoffLo, candidate.ID)
		if len(entries) > 0 {
			go n.sendTakeOverKeys(candidate.Addr, entries)
		}
	}

	return protocol.Response{Kind: protocol.NotifyResult, Sender: n.self}
}

// sendTakeOverKeys is fire-and-forget: there is no retry. If the send fails
// (or no transport is wired), the entries are put back into the local store
// so a failed hand-off does not lose them.
func (n *Node) sendTakeOverKeys(addr string, entries []protocol.Entry) {
	n.mu.RLock()
	transport := n.transport
	n.mu.RUnlock()
	if transport == nil {
		n.store.absorb(entries)
		return
	}
	req := protocol.Request{Kind: protocol.DHTTakeOverKeys, Sender: n.self, Entries: entries}
	env := protocol.Envelope{Kind: protocol.KindRequest, Sender: n.self, Request: &req}
	if err := transport.Send(addr, env); err != nil {
		logging.Store.Printf("hand off %d keys to %s: %v", len(entries), addr, err)
		n.store.absorb(entries)
	}
}

// handleGetSuccessorList answers with this node's successor list, used by
// stabilize to refresh a peer's backups in one round trip (§4.4, §4.9).
func (n *Node) handleGetSuccessorList() protocol.Response {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return protocol.Response{
		Kind:       protocol.GetSuccessorListResult,
		Sender:     n.self,
		Successors: n.successors.list(),
	}
}

// handleDHTStoreKey stores req.Entry locally if owned, else forwards to the
// closest preceding node (§4.2 I2, §4.5).
func (n *Node) handleDHTStoreKey(req protocol.Request) protocol.Response {
	n.mu.RLock()
	owned := n.ownsKeyLocked(req.Entry.KeyID)
	next := n.closestPrecedingLocked(req.Entry.KeyID)
	n.mu.RUnlock()

	if owned {
		n.store.put(req.Entry.KeyID, req.Entry.Payload)
		return protocol.Response{Kind: protocol.DHTStoredKey, Sender: n.self, KeyID: req.Entry.KeyID}
	}
	return protocol.Response{
		Kind:     protocol.DHTAskFurtherStore,
		Sender:   n.self,
		NextNode: next,
		Entry:    req.Entry,
		KeyID:    req.Entry.KeyID,
	}
}

// handleDHTFindKey looks up req.ID locally if owned, else forwards (§4.5).
func (n *Node) handleDHTFindKey(req protocol.Request) protocol.Response {
	n.mu.RLock()
	owned := n.ownsKeyLocked(req.ID)
	next := n.closestPrecedingLocked(req.ID)
	n.mu.RUnlock()

	if owned {
		payload, found := n.store.get(req.ID)
		return protocol.Response{Kind: protocol.DHTFoundKey, Sender: n.self, KeyID: req.ID, Payload: payload, Found: found}
	}
	return protocol.Response{Kind: protocol.DHTAskFurtherFind, Sender: n.self, NextNode: next, KeyID: req.ID}
}

// handleDHTDeleteKey deletes req.ID locally if owned, else forwards (§4.5).
func (n *Node) handleDHTDeleteKey(req protocol.Request) protocol.Response {
	n.mu.RLock()
	owned := n.ownsKeyLocked(req.ID)
	next := n.closestPrecedingLocked(req.ID)
	n.mu.RUnlock()

	if owned {
		existed := n.store.delete(req.ID)
		return protocol.Response{Kind: protocol.DHTDeletedKey, Sender: n.self, KeyID: req.ID, Existed: existed}
	}
	return protocol.Response{Kind: protocol.DHTAskFurtherDelete, Sender: n.self, NextNode: next, KeyID: req.ID}
}

// handleDHTTakeOverKeys absorbs keys handed off either by a successor that
// just accepted this node as its predecessor (§4.7) or by a departing
// predecessor during its graceful leave (§4.10). It has no
// meaningful response; the sender treats this request as fire-and-forget.
func (n *Node) handleDHTTakeOverKeys(req protocol.Request) protocol.Response {
	n.store.absorb(req.Entries)
	return protocol.Response{Kind: protocol.DHTStoredKey, Sender: n.self}
}
