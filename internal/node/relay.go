package node

import (
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
	"github.com/bits-and-blooms/bloom/v3"
)

// dedupWindowMs is how long a forwarded-frame fingerprint is trusted
// before the dedup filter is rebuilt (spec SPEC_FULL §4.11).
const dedupWindowMs = 2_000

// relayDedup suppresses exact retransmission of a frame this node has
// already forwarded in the last dedupWindowMs, recovered from the
// original firmware's forwarding path. It is a duplicate-suppression
// cache only: it never overrides the anti-loop/hop-limit rule, and it
// never looks at frames addressed to self.
type relayDedup struct {
	filter    *bloom.BloomFilter
	firstSeen uint32
	any       bool
}

func newRelayDedup() *relayDedup {
	return &relayDedup{filter: bloom.NewWithEstimates(256, 0.01)}
}

func fingerprint(f frame.Frame) []byte {
	b := make([]byte, 4, 4+len(f.Payload))
	b[0] = f.Src
	b[1] = f.Dst
	b[2] = byte(f.Type)
	b[3] = f.Hops
	return append(b, f.Payload...)
}

// seen reports whether f was already relayed inside the current window,
// rebuilding the filter once the window has elapsed.
func (d *relayDedup) seen(f frame.Frame, now uint32) bool {
	if !d.any || clock.Elapsed(now, d.firstSeen) > dedupWindowMs {
		d.filter = bloom.NewWithEstimates(256, 0.01)
		d.firstSeen = now
		d.any = true
	}
	fp := fingerprint(f)
	if d.filter.Test(fp) {
		return true
	}
	d.filter.Add(fp)
	return false
}

// relay forwards f on behalf of its sender per spec §4.4: only frames
// whose src is the current parent or a known child are eligible (the
// tree-policy anti-loop guard), only below MAX_HOPS, and never frames
// addressed to self or broadcast. hops is incremented before
// retransmission; a recognized test-frame header's hop_cnt is bumped in
// lockstep. Returns true if the frame was handed to the shaper.
func (n *Node) relay(f frame.Frame, now uint32) bool {
	if f.Dst == n.ID || f.Dst == frame.BroadcastID {
		return false
	}
	if f.Hops >= frame.MaxHops {
		return false
	}
	if !n.isUpstreamOrChild(f.Src) {
		return false
	}
	if n.dedup.seen(f, now) {
		return false
	}

	out := f
	out.Hops = f.Hops + 1
	if len(out.Payload) > 0 {
		payload := make([]byte, len(f.Payload))
		copy(payload, f.Payload)
		if out.Type == frame.TypeDataUp {
			frame.BumpHopCnt(payload)
		}
		out.Payload = payload
	}
	n.send(out)
	return true
}

// isUpstreamOrChild is the anti-loop guard: a frame is only ever
// forwarded if it came from the parent or a known child.
func (n *Node) isUpstreamOrChild(src byte) bool {
	if n.Attached() && src == n.ParentID {
		return true
	}
	_, ok := n.children.find(src)
	return ok
}
