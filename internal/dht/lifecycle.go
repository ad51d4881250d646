package dht

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chordring/internal/logging"
	"chordring/internal/protocol"
)

// Run starts the transport's accept loop and every maintenance worker, and
// blocks until a SIGINT/SIGTERM requests a graceful shutdown (§4.10),
// mirroring original_source/src/chord.rs's listen_for_kill_signal. It
// returns nil on a clean shutdown; the caller is expected to exit 0 in that
// case, and the process may instead have already exited 1 out of
// runStabilizeLoop if the ring died first (§7).
func (n *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- n.transport.Serve(n.self.Addr, n)
	}()

	maintenanceDone := make(chan struct{})
	go func() {
		n.RunMaintenance(ctx)
		close(maintenanceDone)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-serveErr:
		return err
	case <-sigCh:
		logging.Lifecycle.Printf("shutdown requested, leaving ring")
	}

	n.leave()
	cancel()
	<-maintenanceDone
	return nil
}

// leave hands every locally-owned key to the successor along with
// ownership, then sends the successor a Notify naming this node's
// predecessor (§4.10 graceful shutdown). The successor applies its usual
// Notify rule to that candidate, so while it still holds this node as its
// predecessor the candidate is not accepted; the gap is then closed by the
// surviving peers' own check-predecessor and stabilize loops. Best-effort:
// a failed send here is only logged.
func (n *Node) leave() {
	n.mu.RLock()
	succ := n.successors.head()
	pred, hasPred := protocol.PeerRef{}, false
	if n.predecessor != nil {
		pred, hasPred = *n.predecessor, true
	}
	self := n.self
	n.mu.RUnlock()

	if succ.Equal(self) {
		return
	}

	entries := n.store.all()
	if len(entries) > 0 {
		n.sendTakeOverKeys(succ.Addr, entries)
	}

	if hasPred {
		if err := n.notifyAs(succ.Addr, pred); err != nil {
			logging.Lifecycle.Printf("leave: notify successor of predecessor: %v", err)
		}
	}
}

// notifyAs sends a Notify to addr claiming as to be its predecessor,
// generalizing notify() so leave() can announce a peer other than itself
// (the departing node's own predecessor). It returns once the send has
// succeeded or failed; the NotifyResponse is not waited for.
func (n *Node) notifyAs(addr string, as protocol.PeerRef) error {
	n.mu.RLock()
	transport := n.transport
	n.mu.RUnlock()

	req := protocol.Request{Kind: protocol.Notify, Sender: n.self, Node: as}
	env := protocol.Envelope{Kind: protocol.KindRequest, Sender: n.self, Request: &req}
	return transport.Send(addr, env)
}
