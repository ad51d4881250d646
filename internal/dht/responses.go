package dht

import (
	"fmt"

	"chordring/internal/logging"
	"chordring/internal/protocol"
	"chordring/internal/ring"
)

// handleResponse applies an incoming response to local state and/or routes
// it to whichever caller is waiting on it (§4.8). Every branch here must be
// idempotent: duplicate or late responses re-apply the same update and are
// harmless, since nothing here distinguishes a first delivery from a retry.
func (n *Node) handleResponse(resp protocol.Response) {
	switch resp.Kind {
	case protocol.FoundSuccessor, protocol.AskFurther:
		n.deliverPending(protocol.FindSuccessor, resp.KeyID, resp)

	case protocol.FoundSuccessorFinger, protocol.AskFurtherFinger:
		n.deliverPending(protocol.FindSuccessorFinger, resp.FingerID, resp)

	case protocol.GetPredecessorResult:
		n.deliverPending(protocol.GetPredecessor, 0, resp)

	case protocol.NotifyResult:
		// No-op: Notify never asks for anything back (REDESIGN FLAG R2).

	case protocol.GetSuccessorListResult:
		n.deliverPending(protocol.GetSuccessorList, 0, resp)

	case protocol.DHTStoredKey, protocol.DHTAskFurtherStore:
		n.deliverPending(protocol.DHTStoreKey, resp.KeyID, resp)

	case protocol.DHTFoundKey, protocol.DHTAskFurtherFind:
		n.deliverPending(protocol.DHTFindKey, resp.KeyID, resp)

	case protocol.DHTDeletedKey, protocol.DHTAskFurtherDelete:
		n.deliverPending(protocol.DHTDeleteKey, resp.KeyID, resp)
	}
}

// findSuccessor resolves id to its owning peer by chasing AskFurther hops
// from the local routing table (§4.5, §4.7). It never blocks holding mu: each
// hop snapshots the next candidate, releases the lock, sends, waits, and
// only re-enters the loop once the response has arrived.
func (n *Node) findSuccessor(id ring.ID) (protocol.PeerRef, error) {
	n.mu.RLock()
	if n.r.InHalfOpenRight(n.self.ID, n.successors.head().ID, id) || n.successors.head().Equal(n.self) {
		succ := n.successors.head()
		n.mu.RUnlock()
		return succ, nil
	}
	next := n.closestPrecedingLocked(id)
	n.mu.RUnlock()

	const maxHops = 64
	for hop := 0; hop < maxHops; hop++ {
		req := protocol.Request{Kind: protocol.FindSuccessor, Sender: n.self, ID: id}
		resp, err := n.awaitResponse(next.Addr, protocol.FindSuccessor, id, req)
		if err != nil {
			return protocol.PeerRef{}, fmt.Errorf("dht: findSuccessor(%d): %w", id, err)
		}
		if resp.Kind == protocol.FoundSuccessor {
			return resp.Peer, nil
		}
		next = resp.NextNode
	}
	return protocol.PeerRef{}, fmt.Errorf("dht: findSuccessor(%d): exceeded %d hops", id, maxHops)
}

// findSuccessorFinger is findSuccessor's twin for a specific finger index,
// used by fix-fingers (§4.9, REDESIGN FLAG R1).
func (n *Node) findSuccessorFinger(index int, target ring.ID) (protocol.PeerRef, error) {
	n.mu.RLock()
	if n.r.InHalfOpenRight(n.self.ID, n.successors.head().ID, target) || n.successors.head().Equal(n.self) {
		succ := n.successors.head()
		n.mu.RUnlock()
		return succ, nil
	}
	next := n.closestPrecedingLocked(target)
	n.mu.RUnlock()

	const maxHops = 64
	for hop := 0; hop < maxHops; hop++ {
		req := protocol.Request{Kind: protocol.FindSuccessorFinger, Sender: n.self, Index: index, FingerID: target}
		resp, err := n.awaitResponse(next.Addr, protocol.FindSuccessorFinger, target, req)
		if err != nil {
			return protocol.PeerRef{}, fmt.Errorf("dht: findSuccessorFinger(%d,%d): %w", index, target, err)
		}
		if resp.Kind == protocol.FoundSuccessorFinger {
			return resp.Peer, nil
		}
		next = resp.NextNode
	}
	return protocol.PeerRef{}, fmt.Errorf("dht: findSuccessorFinger(%d,%d): exceeded %d hops", index, target, maxHops)
}

// getPredecessorOf asks addr for its predecessor (§4.8 stabilize), returning
// ok=false if addr reports none.
func (n *Node) getPredecessorOf(addr string) (protocol.PeerRef, bool, error) {
	req := protocol.Request{Kind: protocol.GetPredecessor, Sender: n.self}
	resp, err := n.awaitResponse(addr, protocol.GetPredecessor, 0, req)
	if err != nil {
		return protocol.PeerRef{}, false, err
	}
	if resp.Predecessor == nil {
		return protocol.PeerRef{}, false, nil
	}
	return *resp.Predecessor, true, nil
}

// getSuccessorListOf asks addr for its successor list (§4.4, §4.9).
func (n *Node) getSuccessorListOf(addr string) ([]protocol.PeerRef, error) {
	req := protocol.Request{Kind: protocol.GetSuccessorList, Sender: n.self}
	resp, err := n.awaitResponse(addr, protocol.GetSuccessorList, 0, req)
	if err != nil {
		return nil, err
	}
	return resp.Successors, nil
}

// notify tells addr that n believes itself to be its predecessor (§4.8).
// The response is a no-op (R2); notify only needs to know the send itself
// succeeded.
func (n *Node) notify(addr string) error {
	err := n.notifyAs(addr, n.self)
	if err != nil {
		logging.Stabilize.Printf("notify %s: %v", addr, err)
	}
	return err
}

// storeRemote resolves key's owner and stores it there, chasing
// DHTAskFurtherStore hops the same way findSuccessor chases AskFurther (§4.5).
func (n *Node) storeRemote(entry protocol.Entry, addr string) error {
	const maxHops = 64
	for hop := 0; hop < maxHops; hop++ {
		req := protocol.Request{Kind: protocol.DHTStoreKey, Sender: n.self, Entry: entry}
		resp, err := n.awaitResponse(addr, protocol.DHTStoreKey, entry.KeyID, req)
		if err != nil {
			return err
		}
		if resp.Kind == protocol.DHTStoredKey {
			return nil
		}
		addr = resp.NextNode.Addr
	}
	return fmt.Errorf("dht: store(%d): exceeded %d hops", entry.KeyID, maxHops)
}

// findRemote resolves key's owner and fetches it, chasing DHTAskFurtherFind
// hops (§4.5).
func (n *Node) findRemote(id ring.ID, addr string) ([]byte, bool, error) {
	const maxHops = 64
	for hop := 0; hop < maxHops; hop++ {
		req := protocol.Request{Kind: protocol.DHTFindKey, Sender: n.self, ID: id}
		resp, err := n.awaitResponse(addr, protocol.DHTFindKey, id, req)
		if err != nil {
			return nil, false, err
		}
		if resp.Kind == protocol.DHTFoundKey {
			return resp.Payload, resp.Found, nil
		}
		addr = resp.NextNode.Addr
	}
	return nil, false, fmt.Errorf("dht: find(%d): exceeded %d hops", id, maxHops)
}

// deleteRemote resolves key's owner and deletes it, chasing
// DHTAskFurtherDelete hops (§4.5).
func (n *Node) deleteRemote(id ring.ID, addr string) (bool, error) {
	const maxHops = 64
	for hop := 0; hop < maxHops; hop++ {
		req := protocol.Request{Kind: protocol.DHTDeleteKey, Sender: n.self, ID: id}
		resp, err := n.awaitResponse(addr, protocol.DHTDeleteKey, id, req)
		if err != nil {
			return false, err
		}
		if resp.Kind == protocol.DHTDeletedKey {
			return resp.Existed, nil
		}
		addr = resp.NextNode.Addr
	}
	return false, fmt.Errorf("dht: delete(%d): exceeded %d hops", id, maxHops)
}
