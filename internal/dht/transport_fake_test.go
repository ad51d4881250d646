package dht

import (
	"fmt"
	"sync"

	"chordring/internal/protocol"
)

// fakeTransport is an in-memory Transport used by tests that need to drive
// request/response correlation without opening real sockets. sendFunc lets
// a test script exactly what happens on Send; alive controls IsAlive.
type fakeTransport struct {
	mu       sync.Mutex
	sendFunc func(addr string, env protocol.Envelope) error
	alive    map[string]bool
	sent     []protocol.Envelope
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{alive: make(map[string]bool)}
}

func (f *fakeTransport) Send(addr string, env protocol.Envelope) error {
	f.mu.Lock()
	f.sent = append(f.sent, env)
	fn := f.sendFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(addr, env)
	}
	return nil
}

func (f *fakeTransport) IsAlive(addr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[addr]
}

func (f *fakeTransport) Serve(bind string, receiver Receiver) error {
	return fmt.Errorf("fakeTransport: Serve not implemented")
}
