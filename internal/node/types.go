// Package node implements the non-root mesh participant: parent
// selection from overheard candidates, its own child table, selective
// frame relaying, and a deferred-transmit retry queue (spec §4.3–§4.5).
package node

import "github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"

// NoParent is the sentinel parent_id meaning "unattached".
const NoParent byte = 0xFF

// UnknownHop is the sentinel hop count before a node has heard a QUERY
// telling it its own distance from the gateway.
const UnknownHop uint8 = 0xFF

// Fixed table capacities (spec §3).
const (
	CandidateCap = 5
	ChildCap     = 10
	DeferredCap  = 16
)

// MinCandidateRSSI excludes a candidate too weak to be a useful parent
// (spec §4.3 "Candidate update").
const MinCandidateRSSI int8 = -120

// Candidate is a remote station recently heard, eligible for parent
// selection (spec §3 "Node candidate").
type Candidate struct {
	ID         byte
	RSSI       int8
	Hops       uint8
	LastSeenMs uint32
}

// ChildRecord is a directly-attached descendant of this node (spec §3
// "Node child").
type ChildRecord struct {
	ID         byte
	LastSeenMs uint32
}

// DeferredEntry is one reservation in the deferred-TX queue (spec §4.5).
type DeferredEntry struct {
	InUse   bool
	Header  frame.Header
	Data    [frame.MaxPayload]byte
	Len     uint8
	NextTry uint32
	Tries   int
}

const maxDeferredTries = 200
