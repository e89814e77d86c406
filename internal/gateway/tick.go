package gateway

import (
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
)

// Tick runs one pass of the gateway's periodic loop (spec §4.2
// "Periodic loop"), steps 1-7 in the order the spec lists them.
func (s *Supervisor) Tick(now uint32) {
	// 1. Service every pending-join whose next_try <= now.
	s.pendingJoins.forEach(func(pj *PendingJoin) bool {
		if isFuture(pj.NextTryMs, now) {
			return true
		}
		s.trySendJoinAck(pj.ID)
		// trySendJoinAck itself removes the slot on success and
		// reschedules it in place on Deferred or a radio error. When
		// JOIN_ACK_GAP rate-limits the ack, the entry is left as is
		// and is tried again on a later tick. In every case keep the
		// entry here; a slot already removed stays removed.
		return true
	})

	// 2. Service every pending-query whose next_try <= now.
	s.pendingQueries.forEach(func(pq *PendingQuery) bool {
		if isFuture(pq.NextTryMs, now) {
			return true
		}
		child, ok := s.children.find(pq.ID)
		if !ok {
			return false // target vanished: drop the pending-query
		}
		s.trySendQuery(child)
		return true
	})

	// 3. Evict any child silent longer than CHILD_TIMEOUT.
	var toEvict []byte
	s.children.forEach(func(c *ChildRecord) {
		if clock.Elapsed(now, c.LastSeenMs) > ms(s.timing.ChildTimeout) {
			toEvict = append(toEvict, c.ID)
		}
	})
	for _, id := range toEvict {
		s.children.remove(id)
	}

	// 4. Every QUERY_PERIOD, query every child with no query in flight.
	if clock.Elapsed(now, s.lastQueryRoundMs) >= ms(s.timing.QueryPeriod) {
		s.lastQueryRoundMs = now
		s.children.forEach(func(c *ChildRecord) {
			if c.LastQueryMs != 0 {
				return
			}
			if _, pending := s.pendingQueries.find(c.ID); pending {
				return
			}
			s.trySendQuery(c)
		})
	}

	// 5. Timeout any outstanding query; evict on repeated misses.
	var missEvict []byte
	s.children.forEach(func(c *ChildRecord) {
		if c.LastQueryMs == 0 {
			return
		}
		if clock.Elapsed(now, c.LastQueryMs) <= ms(s.timing.QueryTimeout) {
			return
		}
		c.LastQueryMs = 0
		if !c.AnsweredSinceQuery {
			c.Misses++
			if c.Misses > s.timing.MaxMisses {
				missEvict = append(missEvict, c.ID)
			}
		}
	})
	for _, id := range missEvict {
		s.children.remove(id)
	}

	// 6. Beacon only while the child table is empty (spec §9 open
	// question: beacon suppression).
	if s.ChildCount() == 0 && clock.Elapsed(now, s.lastBeaconMs) > ms(s.timing.BeaconPeriod) {
		s.send(frame.Frame{
			Header:  frame.Header{Src: GWID, Dst: frame.BroadcastID, Hops: 0, Type: frame.TypeBeacon},
			Payload: []byte{0},
		})
		s.lastBeaconMs = now
	}

	// 7. Periodic observational status dump.
	if clock.Elapsed(now, s.lastStatusDumpMs) >= ms(s.timing.StatusDumpPeriod) {
		s.lastStatusDumpMs = now
		s.dump(now)
	}
}
