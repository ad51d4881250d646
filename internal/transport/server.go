package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/netutil"

	"chordring/internal/dht"
	"chordring/internal/logging"
	"chordring/internal/protocol"
)

// readTimeout bounds how long Serve waits for a connecting peer to finish
// writing its single framed message, so a slow or hung dialer cannot pin a
// connection-governor slot forever (SPEC_FULL.md §4.15).
const readTimeout = 5 * time.Second

// Serve listens on bind and, for every accepted connection, decodes exactly
// one JSON envelope and hands it to receiver.Receive before closing the
// connection (§6: connectionless at the protocol level, one message per
// TCP connection). The accept loop is wrapped in netutil.LimitListener,
// generalizing the teacher's crashMiddleware gate into a hard cap on
// concurrently open connections (SPEC_FULL.md §4.15 connection governor).
func (t *TCPTransport) Serve(bind string, receiver dht.Receiver) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("transport: listen on %s: %w", bind, err)
	}

	limited := netutil.LimitListener(ln, t.maxConnections)
	t.listener = limited

	logging.Transport.Printf("listening on '%s' (max %d connections)", bind, t.maxConnections)

	for {
		conn, err := limited.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("transport: accept on %s: %w", bind, err)
		}
		go t.handleConn(conn, receiver)
	}
}

// Stop closes the listener, unblocking Serve's Accept loop.
func (t *TCPTransport) Stop() error {
	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}

func (t *TCPTransport) handleConn(conn net.Conn, receiver dht.Receiver) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		logging.Transport.Printf("set read deadline for %s: %v", conn.RemoteAddr(), err)
		return
	}

	var env protocol.Envelope
	if err := json.NewDecoder(conn).Decode(&env); err != nil {
		logging.Transport.Printf("decode from %s: %v", conn.RemoteAddr(), err)
		return
	}

	receiver.Receive(env)
}
