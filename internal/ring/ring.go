// Package ring implements Chord's identifier space: modular arithmetic over
// the m-bit ring and the hashing primitive used to place peers and keys on it.
package ring

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ID is an identifier in [0, Size) on some ring.
type ID uint64

// Ring fixes the bit-width m of a Chord identifier space. It is a plain
// value so tests can run several ring sizes (e.g. m=6 in §8's scenarios)
// side by side without any shared global state.
type Ring struct {
	bits uint
	size ID
}

// DefaultBits is the default bit-width m; config.Defaults uses the same value.
const DefaultBits = 24

// New returns the ring of bit-width m, i.e. 2^m identifiers.
func New(m uint) Ring {
	if m == 0 || m >= 64 {
		panic(fmt.Sprintf("ring: invalid bit-width %d", m))
	}
	return Ring{bits: m, size: ID(1) << m}
}

// Bits returns m.
func (r Ring) Bits() uint { return r.bits }

// Size returns 2^m.
func (r Ring) Size() ID { return r.size }

// Mod reduces x into [0, Size).
func (r Ring) Mod(x uint64) ID {
	return ID(x % uint64(r.size))
}

// Add returns (a + offset) mod Size.
func (r Ring) Add(a ID, offset uint64) ID {
	return r.Mod(uint64(a) + offset)
}

// Distance is the clockwise distance from a to b, i.e. (b - a) mod Size.
func (r Ring) Distance(a, b ID) ID {
	s := uint64(r.size)
	return ID((uint64(b) - uint64(a) + s) % s)
}

// InOpenInterval reports whether x lies strictly between a and b walking
// clockwise, i.e. x ∈ (a, b). When a == b the interval is the whole ring and
// every x qualifies, including a itself (§4.1 edge rule).
func (r Ring) InOpenInterval(a, b, x ID) bool {
	if a == b {
		return true
	}
	if x == a {
		return false
	}
	return r.Distance(a, x) < r.Distance(a, b)
}

// InHalfOpenRight reports whether x ∈ (a, b], strict on the left and
// inclusive on the right. When a == b the interval is the whole ring.
func (r Ring) InHalfOpenRight(a, b, x ID) bool {
	if a == b {
		return true
	}
	if x == b {
		return true
	}
	return r.InOpenInterval(a, b, x)
}

// HashAddress derives a PeerId from a printable network address.
func (r Ring) HashAddress(addr string) ID {
	return r.hashString(addr)
}

// HashKey derives a key id from an arbitrary string, using the same
// collaborator as HashAddress (§4.2 treats both as the same primitive).
func (r Ring) HashKey(key string) ID {
	return r.hashString(key)
}

func (r Ring) hashString(s string) ID {
	digest := blake2b.Sum256([]byte(s))
	// blake2b-256 is far wider than any practical ring; fold the low 8
	// bytes into a uint64 and reduce modulo the ring size.
	var acc uint64
	for _, b := range digest[len(digest)-8:] {
		acc = acc<<8 | uint64(b)
	}
	return r.Mod(acc)
}
