package gateway

import (
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/meshnet"
)

// HandleFrame dispatches an inbound, already-decoded frame by type (spec
// §4.2 "Receive path"). rssi is the driver's reading for the packet that
// carried f.
func (s *Supervisor) HandleFrame(f frame.Frame, rssi int8) {
	now := s.clk.NowMs()

	switch f.Type {
	case frame.TypeJoinReq:
		s.handleJoinReq(f.Src, now)

	case frame.TypeDataUp:
		s.touchChild(f.Src, now, rssi, func(c *ChildRecord) {
			c.Misses = 0
			c.AnsweredSinceQuery = true
		})
		s.send(frame.Frame{
			Header: frame.Header{Src: GWID, Dst: f.Src, Hops: 0, Type: frame.TypeDataAck},
		})

	case frame.TypeState:
		sp, err := frame.DecodeStatusPayload(f.Payload)
		if err != nil {
			merr := meshnet.Wrap(meshnet.ErrCodeFraming, "drop malformed STATE payload", err)
			s.logger.Warn(merr.Error(), "src", f.Src)
			return
		}
		s.touchChild(f.Src, now, rssi, func(c *ChildRecord) {
			c.Parent = sp.Parent
			c.HopsToGW = sp.Hops
			c.Misses = 0
			c.LastQueryMs = 0
			c.AnsweredSinceQuery = true
		})

	case frame.TypeChildAdd:
		ev, err := frame.DecodeChildEventPayload(f.Payload)
		if err != nil {
			merr := meshnet.Wrap(meshnet.ErrCodeFraming, "drop malformed CHILD_ADD payload", err)
			s.logger.Warn(merr.Error(), "src", f.Src)
			return
		}
		s.touchChild(ev.Child, now, 0, func(c *ChildRecord) {
			c.Parent = ev.Parent
			c.HopsToGW = ev.Hops
		})
		s.pendingJoins.remove(ev.Child)

	case frame.TypeChildGone:
		ev, err := frame.DecodeChildEventPayload(f.Payload)
		if err != nil {
			merr := meshnet.Wrap(meshnet.ErrCodeFraming, "drop malformed CHILD_GONE payload", err)
			s.logger.Warn(merr.Error(), "src", f.Src)
			return
		}
		s.children.remove(ev.Child)
		s.pendingJoins.remove(ev.Child)

	default:
		if c, ok := s.children.find(f.Src); ok {
			c.LastSeenMs = now
		}
	}
}

func (s *Supervisor) handleJoinReq(id byte, now uint32) {
	pj, ok := s.pendingJoins.upsert(id)
	if ok {
		pj.LastSeenMs = now
		if !isFuture(pj.NextTryMs, now) {
			s.trySendJoinAck(id)
		}
	}
	if c, ok := s.children.find(id); ok {
		c.LastSeenMs = now
	}
}

// touchChild creates the child record if absent (subject to capacity)
// and applies mutate, always refreshing LastSeenMs and refreshing
// LastRSSI when rssi is non-zero (CHILD_ADD passes 0). A capacity
// exhaustion here causes no protocol reply per spec §7: it's only
// logged, and the higher-level retry machinery (the sender will keep
// sending DATA_UP/STATE) recovers once room frees up.
func (s *Supervisor) touchChild(id byte, now uint32, rssi int8, mutate func(*ChildRecord)) {
	c, created, ok := s.children.upsert(id)
	if !ok {
		merr := meshnet.New(meshnet.ErrCodeCapacityExceeded, "child table full, dropping touch")
		s.logger.Warn(merr.Error(), "id", id)
		return
	}
	c.LastSeenMs = now
	if rssi != 0 {
		c.LastRSSI = rssi
	}
	if created {
		c.Parent = GWID
		c.HopsToGW = 1
	}
	mutate(c)
}

// isFuture reports whether deadline t has not yet arrived relative to
// now (wrap tolerant, spec §5).
func isFuture(t, now uint32) bool {
	return int32(t-now) > 0
}
