package dht

import "chordring/internal/protocol"

// Transport is the contract a Node needs from the byte-level transport
// (§4.6, out of scope for the core but specified here at the boundary):
// best-effort one-shot send, a bounded liveness probe, and an accept loop
// that hands each framed message to a Receiver synchronously.
//
// Grounded on the teacher's dht.Transport interface, generalized from
// per-RPC HTTP methods (CheckAlive/GetPredecessor/Notify/FindSuccessor) to a
// single envelope-shaped Send, per REDESIGN FLAG R3.
type Transport interface {
	// Send delivers env to addr best-effort; failures are returned to the
	// caller but never raised beyond IsAlive (§4.6).
	Send(addr string, env protocol.Envelope) error

	// IsAlive attempts a Ping against addr, returning true iff it succeeds
	// within the configured timeout (§4.6, §5).
	IsAlive(addr string) bool

	// Serve accepts connections on bind, reading one framed message per
	// connection and handing it synchronously to receiver (§4.6).
	Serve(bind string, receiver Receiver) error
}

// Receiver is implemented by Node; Serve hands every accepted envelope to it.
type Receiver interface {
	Receive(env protocol.Envelope)
}
