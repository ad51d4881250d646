package dht

import "chordring/internal/protocol"

// Put stores payload under key, resolving ownership locally first and only
// going over the wire if some other peer owns it (§4.2 I2). This is the
// entry point used by the interactive prompt and any other local client of
// the ring, as opposed to handleDHTStoreKey which answers a remote peer's
// request for the same operation.
func (n *Node) Put(key string, payload []byte) error {
	id := n.r.HashKey(key)

	owner, err := n.findSuccessor(id)
	if err != nil {
		return err
	}
	if owner.Equal(n.self) {
		n.store.put(id, payload)
		return nil
	}
	return n.storeRemote(protocol.Entry{KeyID: id, Payload: payload}, owner.Addr)
}

// Get retrieves the payload stored under key, if any.
func (n *Node) Get(key string) ([]byte, bool, error) {
	id := n.r.HashKey(key)

	owner, err := n.findSuccessor(id)
	if err != nil {
		return nil, false, err
	}
	if owner.Equal(n.self) {
		v, ok := n.store.get(id)
		return v, ok, nil
	}
	return n.findRemote(id, owner.Addr)
}

// Delete removes key, reporting whether it previously existed.
func (n *Node) Delete(key string) (bool, error) {
	id := n.r.HashKey(key)

	owner, err := n.findSuccessor(id)
	if err != nil {
		return false, err
	}
	if owner.Equal(n.self) {
		return n.store.delete(id), nil
	}
	return n.deleteRemote(id, owner.Addr)
}
