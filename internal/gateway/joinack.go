package gateway

import (
	"time"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
)

const retryBackoffMs = 50

func ms(d time.Duration) uint32 {
	return uint32(d.Milliseconds())
}

// trySendJoinAck implements spec §4.2 "Join-ack transmission". It
// returns true only when the JOIN_ACK was actually sent on air.
func (s *Supervisor) trySendJoinAck(id byte) bool {
	now := s.clk.NowMs()

	if c, ok := s.children.find(id); ok {
		if clock.Elapsed(now, c.LastJoinAckMs) < ms(s.timing.JoinAckGap) {
			return false
		}
	}

	res := s.send(frame.Frame{
		Header:  frame.Header{Src: GWID, Dst: id, Hops: 0, Type: frame.TypeJoinAck},
		Payload: []byte{0},
	})

	switch res {
	case duty.Sent:
		c, _, ok := s.children.upsert(id)
		if ok {
			c.Parent = GWID
			c.HopsToGW = 1
			c.Misses = 0
			c.LastSeenMs = now
			c.LastJoinAckMs = now
			c.AnsweredSinceQuery = true
		}
		s.pendingJoins.remove(id)
		return true

	case duty.Deferred:
		if pj, ok := s.pendingJoins.upsert(id); ok {
			pj.NextTryMs = s.shaper.FreeAtMs() + retryBackoffMs
			if pj.Tries < maxTries {
				pj.Tries++
			}
		}
		return false

	default: // RadioError
		if pj, ok := s.pendingJoins.upsert(id); ok {
			pj.NextTryMs = now + ms(s.timing.JoinAckGap)
		}
		return false
	}
}
