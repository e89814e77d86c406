package gateway

import (
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
)

// trySendQuery implements spec §4.2 "Query transmission".
func (s *Supervisor) trySendQuery(child *ChildRecord) {
	now := s.clk.NowMs()

	res := s.send(frame.Frame{
		Header: frame.Header{Src: GWID, Dst: child.ID, Hops: 0, Type: frame.TypeQuery},
	})

	switch res {
	case duty.Sent:
		child.LastQueryMs = now
		child.AnsweredSinceQuery = false
		s.pendingQueries.remove(child.ID)

	case duty.Deferred:
		if pq, ok := s.pendingQueries.insert(child.ID); ok {
			pq.NextTryMs = s.shaper.FreeAtMs() + retryBackoffMs
		}

	default: // RadioError
		if pq, ok := s.pendingQueries.insert(child.ID); ok {
			pq.NextTryMs = now + retryBackoffMs
		}
	}
}
