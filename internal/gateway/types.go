// Package gateway implements the tree-root supervisor: child table,
// join handshake, periodic status polling, miss/timeout eviction, and
// pending-work queues (spec §4.2).
package gateway

import "github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"

// GWID is this role's fixed node id.
const GWID = frame.GatewayID

// Fixed table capacities (spec §3).
const (
	ChildCap        = 64
	PendingJoinCap  = 16
	PendingQueryCap = 32
)

// ChildRecord is one live descendant the gateway is tracking (spec §3
// "Gateway child record"). A zero ID means the slot is empty.
type ChildRecord struct {
	ID                 byte
	Parent             byte
	HopsToGW           uint8
	Misses             int
	LastRSSI           int8
	LastSeenMs         uint32
	LastQueryMs        uint32 // 0 means no query outstanding
	LastJoinAckMs      uint32
	AnsweredSinceQuery bool
}

// PendingJoin is a reservation of join-ack work that couldn't be
// transmitted immediately (spec §3 "Gateway pending-join slot").
type PendingJoin struct {
	ID         byte
	NextTryMs  uint32
	Tries      int
	LastSeenMs uint32
}

// PendingQuery is a reservation of query work that couldn't be
// transmitted immediately (spec §3 "Gateway pending-query slot").
type PendingQuery struct {
	ID        byte
	NextTryMs uint32
	Tries     int
}

const maxTries = 200
