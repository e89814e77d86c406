package node

import (
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
)

// observeCandidate records src as a parent candidate from any received
// frame with src != self, rssi >= MinCandidateRSSI and hops <= MaxHops
// (spec §4.3 "Candidate update").
func (n *Node) observeCandidate(src byte, rssi int8, hops uint8, now uint32) {
	if src == n.ID {
		return
	}
	if rssi < MinCandidateRSSI || hops > frame.MaxHops {
		return
	}
	n.candidates.upsert(src, rssi, hops, now)
}

// driveJoin runs the join flow for one tick while unattached (spec §4.3
// "Join flow"): picks the best fresh candidate and sends a JOIN_REQ,
// scheduling the next attempt according to the transmit outcome.
func (n *Node) driveJoin(now uint32) {
	if n.Attached() {
		return
	}
	if clock.Before(now, n.NextJoinAtMs) {
		return
	}

	p, ok := n.candidates.pickParent(now, ms(n.timing.CandidateMaxAge))
	if !ok {
		n.NextJoinAtMs = now + ms(n.timing.JoinRetryMs)
		return
	}

	res := n.send(frame.Frame{Header: frame.Header{Src: n.ID, Dst: p.ID, Hops: 0, Type: frame.TypeJoinReq}})
	switch res {
	case duty.Deferred:
		freeAt := n.shaper.FreeAtMs() + 50
		atLeast := now + 200
		if clock.Before(freeAt, atLeast) {
			n.NextJoinAtMs = atLeast
		} else {
			n.NextJoinAtMs = freeAt
		}
	default: // Sent or RadioError: spec treats both as "attempt made"
		n.JoinParentTrying = p.ID
		n.JoinAckDeadline = now + ms(n.timing.JoinAckTimeoutMs)
		n.NextJoinAtMs = now + ms(n.timing.JoinRetryMs)
	}
}

// handleJoinAck processes an inbound JOIN_ACK addressed to self (spec
// §4.3 "Join-ack receipt"): ignored if already attached.
func (n *Node) handleJoinAck(src byte, rssi int8, now uint32) {
	if n.Attached() {
		return
	}
	n.ParentID = src
	n.ParentRSSI = rssi
	n.LastParentRxMs = now
	n.JoinParentTrying = NoParent
}

// handleJoinNack processes an inbound JOIN_NACK addressed to self (spec
// §4.3 "Join-nack receipt").
func (n *Node) handleJoinNack() {
	n.ParentID = NoParent
	n.JoinParentTrying = NoParent
}

// handleJoinReqAsParent accepts or rejects an inbound JOIN_REQ when self
// already has a parent (spec §4.3 "Handling inbound JOIN_REQ").
func (n *Node) handleJoinReqAsParent(src byte, now uint32) {
	if _, already := n.children.find(src); !already {
		if n.children.count() >= n.timing.MaxChildren {
			n.send(frame.Frame{Header: frame.Header{Src: n.ID, Dst: src, Hops: 0, Type: frame.TypeJoinNack}})
			return
		}
		if !n.children.insert(src, now) {
			n.send(frame.Frame{Header: frame.Header{Src: n.ID, Dst: src, Hops: 0, Type: frame.TypeJoinNack}})
			return
		}
	}

	n.send(frame.Frame{
		Header:  frame.Header{Src: n.ID, Dst: src, Hops: 0, Type: frame.TypeJoinAck},
		Payload: []byte{0},
	})

	hops := n.MyHopToGW
	if hops != UnknownHop {
		hops++
	}
	ev := frame.ChildEventPayload{Child: src, Parent: n.ID, Hops: hops}
	n.send(frame.Frame{
		Header:  frame.Header{Src: n.ID, Dst: frame.GatewayID, Hops: 0, Type: frame.TypeChildAdd},
		Payload: ev.Encode(),
	})
}

// touchParentLiveness refreshes last_parent_rx and the last-heard rssi
// on any frame from the current parent (spec §4.3 "Parent liveness").
func (n *Node) touchParentLiveness(src byte, rssi int8, now uint32) {
	if n.Attached() && src == n.ParentID {
		n.LastParentRxMs = now
		n.ParentRSSI = rssi
	}
}

// checkParentTimeout detaches when the parent has been silent past
// LOST_PARENT_MS.
func (n *Node) checkParentTimeout(now uint32) {
	if !n.Attached() {
		return
	}
	if clock.Elapsed(now, n.LastParentRxMs) > ms(n.timing.LostParentMs) {
		n.detach()
	}
}
