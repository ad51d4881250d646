// Package protocol defines the tagged request/response/notification values
// that cross the wire between Chord peers (§4.5). It has no knowledge of
// transport or framing; internal/transport encodes these as newline-delimited
// JSON (§6).
package protocol

import "chordring/internal/ring"

// PeerRef is an externally-shareable reference to a peer. Equality is by Id
// only; Addr is transport metadata and is never compared.
type PeerRef struct {
	ID   ring.ID `json:"id"`
	Addr string  `json:"addr"`
}

// Equal compares two refs by id, per §3.
func (p PeerRef) Equal(o PeerRef) bool { return p.ID == o.ID }

// IsZero reports whether p is the unset PeerRef (used by dht.New to tell
// that no bootstrap peer was given).
func (p PeerRef) IsZero() bool { return p.Addr == "" }

// Entry is one stored (key id, payload) pair, used by DHTStoreKey and
// DHTTakeOverKeys (§4.5, §4.7 hand-off).
type Entry struct {
	KeyID   ring.ID `json:"key_id"`
	Payload []byte  `json:"payload"`
}

// Kind tags the top-level message carried by a single framed wire record
// (§6): Ping, RequestMessage or ResponseMessage.
type Kind string

const (
	KindPing     Kind = "Ping"
	KindRequest  Kind = "RequestMessage"
	KindResponse Kind = "ResponseMessage"
)

// RequestKind names one of the nine request operations of §4.5.
type RequestKind string

const (
	FindSuccessor       RequestKind = "FindSuccessor"
	FindSuccessorFinger RequestKind = "FindSuccessorFinger"
	GetPredecessor      RequestKind = "GetPredecessor"
	Notify              RequestKind = "Notify"
	GetSuccessorList    RequestKind = "GetSuccessorList"
	DHTStoreKey         RequestKind = "DHTStoreKey"
	DHTFindKey          RequestKind = "DHTFindKey"
	DHTDeleteKey        RequestKind = "DHTDeleteKey"
	DHTTakeOverKeys     RequestKind = "DHTTakeOverKeys"
)

// ResponseKind names one of the response/notification variants of §4.5.
type ResponseKind string

const (
	FoundSuccessor       ResponseKind = "FoundSuccessor"
	AskFurther           ResponseKind = "AskFurther"
	GetPredecessorResult ResponseKind = "GetPredecessorResponse"
	NotifyResult         ResponseKind = "NotifyResponse"
	FoundSuccessorFinger ResponseKind = "FoundSuccessorFinger"
	AskFurtherFinger     ResponseKind = "AskFurtherFinger"
	GetSuccessorListResult ResponseKind = "GetSuccessorListResponse"
	DHTStoredKey         ResponseKind = "DHTStoredKey"
	DHTFoundKey          ResponseKind = "DHTFoundKey"
	DHTDeletedKey        ResponseKind = "DHTDeletedKey"
	DHTAskFurtherStore   ResponseKind = "DHTAskFurtherStore"
	DHTAskFurtherFind    ResponseKind = "DHTAskFurtherFind"
	DHTAskFurtherDelete  ResponseKind = "DHTAskFurtherDelete"
)

// Request is a named operation from sender to receiver expecting a Response
// (§4.5). Only the fields relevant to Kind are populated; this flattened
// shape (one envelope struct, optional fields) keeps the JSON wire format
// simple and mirrors how s4nat-dns-chord's RequestMessage carries every
// request type over a single struct.
type Request struct {
	Kind   RequestKind `json:"kind"`
	Sender PeerRef     `json:"sender"`

	ID       ring.ID `json:"id,omitempty"`        // FindSuccessor, DHTFindKey/DeleteKey key_id
	Index    int     `json:"index,omitempty"`     // FindSuccessorFinger
	FingerID ring.ID `json:"finger_id,omitempty"` // FindSuccessorFinger
	Node     PeerRef `json:"node,omitempty"`      // Notify
	Entry    Entry   `json:"entry,omitempty"`     // DHTStoreKey
	Entries  []Entry `json:"entries,omitempty"`   // DHTTakeOverKeys
}

// Response is a matched reply to a Request (§4.5).
type Response struct {
	Kind   ResponseKind `json:"kind"`
	Sender PeerRef      `json:"sender"`

	Peer        PeerRef  `json:"peer,omitempty"`        // FoundSuccessor, FoundSuccessorFinger
	NextNode    PeerRef  `json:"next_node,omitempty"`    // AskFurther*
	Predecessor *PeerRef `json:"predecessor,omitempty"`  // GetPredecessorResponse
	Index       int      `json:"index,omitempty"`        // *Finger*
	FingerID    ring.ID  `json:"finger_id,omitempty"`     // *Finger*
	Successors  []PeerRef `json:"successors,omitempty"`  // GetSuccessorListResponse
	KeyID       ring.ID  `json:"key_id,omitempty"`       // DHT*
	Payload     []byte   `json:"payload,omitempty"`      // DHTFoundKey
	Found       bool     `json:"found,omitempty"`        // DHTFoundKey
	Existed     bool     `json:"existed,omitempty"`      // DHTDeletedKey
	Entry       Entry    `json:"entry,omitempty"`        // DHTAskFurtherStore
}

// Envelope is the single delimited record exchanged over the wire (§6): a
// tag plus exactly one of Request/Response populated, or neither for Ping.
type Envelope struct {
	Kind     Kind      `json:"kind"`
	Sender   PeerRef   `json:"sender"`
	Request  *Request  `json:"request,omitempty"`
	Response *Response `json:"response,omitempty"`
}
