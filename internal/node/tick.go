package node

import (
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
)

// Tick runs one pass of the node's cooperative loop: join flow, parent
// liveness, child silence eviction, deferred-queue retries, and the
// periodic status dump.
func (n *Node) Tick(now uint32) {
	n.driveJoin(now)
	n.checkParentTimeout(now)

	var silent []byte
	n.children.forEach(func(c *ChildRecord) {
		if clock.Elapsed(now, c.LastSeenMs) > ms(n.timing.ChildSilentMs) {
			silent = append(silent, c.ID)
		}
	})
	for _, id := range silent {
		n.announceChildGone(id)
		n.children.remove(id)
	}

	n.driveDeferred(now)

	if clock.Elapsed(now, n.lastStatusDumpMs) >= ms(n.timing.StatusDumpPeriod) {
		n.lastStatusDumpMs = now
		n.dump(now)
	}
}

// announceChildGone emits a CHILD_GONE event toward the gateway for a
// silent child before its slot is freed, so the gateway erases the
// stale grandchild immediately rather than waiting out its own
// CHILD_TIMEOUT (spec §4.3 "Child pruning").
func (n *Node) announceChildGone(child byte) {
	hops := n.MyHopToGW
	if hops != UnknownHop {
		hops++
	}
	ev := frame.ChildEventPayload{Child: child, Parent: n.ID, Hops: hops}
	n.send(frame.Frame{
		Header:  frame.Header{Src: n.ID, Dst: frame.GatewayID, Hops: 0, Type: frame.TypeChildGone},
		Payload: ev.Encode(),
	})
}
