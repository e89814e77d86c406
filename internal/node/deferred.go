package node

import (
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/meshnet"
)

// sendOrDefer transmits f through the shaper; on Deferred it copies f
// into a free deferred-queue slot scheduled at free_at + 50 ms, per
// spec §4.5. A full queue drops the reservation and logs a capacity
// warning (the caller's
// own retry, if any, is the only recourse — there is no secondary
// queue).
func (n *Node) sendOrDefer(f frame.Frame, now uint32) duty.Result {
	res := n.send(f)
	if res == duty.Deferred {
		n.enqueueDeferred(f, now)
	}
	return res
}

func (n *Node) enqueueDeferred(f frame.Frame, now uint32) {
	for i := range n.deferred {
		if n.deferred[i].InUse {
			continue
		}
		e := &n.deferred[i]
		e.InUse = true
		e.Header = f.Header
		e.Len = uint8(len(f.Payload))
		copy(e.Data[:], f.Payload)
		e.NextTry = n.shaper.FreeAtMs() + 50
		e.Tries = 0
		return
	}
	merr := meshnet.New(meshnet.ErrCodeCapacityExceeded, "deferred queue full, dropping reservation")
	n.logger.Warn(merr.Error(), "type", f.Type.String(), "dst", f.Dst)
}

// driveDeferred retransmits every ready deferred entry (spec §4.5): on
// Sent the slot frees, on Deferred the schedule advances to the new
// free_at, on RadioError retry in +200 ms. tries saturates at 200 and
// never causes a drop.
func (n *Node) driveDeferred(now uint32) {
	for i := range n.deferred {
		e := &n.deferred[i]
		if !e.InUse {
			continue
		}
		if clock.Before(now, e.NextTry) {
			continue
		}

		f := frame.Frame{Header: e.Header, Payload: append([]byte(nil), e.Data[:e.Len]...)}
		res := n.send(f)
		if e.Tries < maxDeferredTries {
			e.Tries++
		}
		switch res {
		case duty.Sent:
			*e = DeferredEntry{}
		case duty.Deferred:
			e.NextTry = n.shaper.FreeAtMs() + 50
		default: // RadioError
			e.NextTry = now + 200
		}
	}
}
