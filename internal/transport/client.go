// Package transport implements the wire-level half of §4.6/§6: newline-
// delimited JSON over TCP, connection-per-message. Grounded on the teacher's
// HTTPTransport (New/Start/Stop lifecycle, an address field, per-call
// timeout tiers, %w-wrapped errors) and on original_source/src/network.rs's
// actual wire mechanism, per REDESIGN FLAG R3: the teacher's per-RPC HTTP
// endpoints are replaced by a single envelope type and a single Send, but
// the struct shape and logging idiom are kept.
package transport

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"chordring/internal/dht"
	"chordring/internal/logging"
	"chordring/internal/protocol"
)

// TCPTransport implements dht.Transport over a plain TCP listener, one
// framed JSON value per accepted connection (§6).
type TCPTransport struct {
	address        string
	sendTimeout    time.Duration
	isAliveTimeout time.Duration
	maxConnections int

	listener net.Listener
}

// New constructs a TCPTransport bound to address, with per-call timeouts
// mirroring the teacher's fastClient/slowClient split: isAliveTimeout bounds
// the liveness probe (§4.6 Ping), sendTimeout bounds every other outbound
// send.
func New(address string, sendTimeout, isAliveTimeout time.Duration, maxConnections int) *TCPTransport {
	t := &TCPTransport{
		address:        address,
		sendTimeout:    sendTimeout,
		isAliveTimeout: isAliveTimeout,
		maxConnections: maxConnections,
	}
	logging.Transport.Printf("transport created on '%s'", address)
	return t
}

// Address returns the bind address this transport was constructed with.
func (t *TCPTransport) Address() string {
	return t.address
}

// Send dials addr, writes env as one newline-terminated JSON value, and
// closes the connection without waiting for a reply (§6): responses to
// requests arrive later on their own connection, handled by Serve.
func (t *TCPTransport) Send(addr string, env protocol.Envelope) error {
	conn, err := net.DialTimeout("tcp", addr, t.sendTimeout)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(t.sendTimeout)); err != nil {
		return fmt.Errorf("transport: set deadline for %s: %w", addr, err)
	}

	if err := json.NewEncoder(conn).Encode(env); err != nil {
		return fmt.Errorf("transport: encode to %s: %w", addr, err)
	}
	return nil
}

// IsAlive dials addr and sends a Ping, returning true iff the connection and
// write both succeed within isAliveTimeout (§4.6, §4.9 check-predecessor).
func (t *TCPTransport) IsAlive(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, t.isAliveTimeout)
	if err != nil {
		return false
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(t.isAliveTimeout)); err != nil {
		return false
	}

	ping := protocol.Envelope{Kind: protocol.KindPing}
	return json.NewEncoder(conn).Encode(ping) == nil
}

var _ dht.Transport = (*TCPTransport)(nil)
