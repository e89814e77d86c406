package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/yasserelgammal/rate-limiter/limiter"
	"github.com/yasserelgammal/rate-limiter/store"
)

// dumpLimiter throttles repeat per-child status lines so a flapping
// link can't flood the sink. Keyed by child id; never gates a protocol
// frame, only this textual output.
var dumpLimiter, _ = limiter.NewTokenBucket(
	limiter.Config{Rate: 4, Duration: time.Second, Burst: 4},
	store.NewMemoryStore(time.Minute),
)

func (s *Supervisor) dump(now uint32) {
	if s.sink == nil {
		return
	}
	var b strings.Builder
	b.WriteString("id parent hops rssi age(ms) miss pending\n")
	s.children.forEach(func(c *ChildRecord) {
		line := fmt.Sprintf("%d", c.ID)
		if !dumpLimiter.Allow(line) {
			return
		}
		pending := c.LastQueryMs != 0
		fmt.Fprintf(&b, "%d %d %d %d %d %d %t\n",
			c.ID, c.Parent, c.HopsToGW, c.LastRSSI,
			clock.Elapsed(now, c.LastSeenMs), c.Misses, pending)
	})

	b.WriteString("pending-joins:\n")
	s.pendingJoins.forEach(func(pj *PendingJoin) bool {
		fmt.Fprintf(&b, "%d next_try=%d tries=%d\n", pj.ID, pj.NextTryMs, pj.Tries)
		return true
	})

	b.WriteString("pending-queries:\n")
	s.pendingQueries.forEach(func(pq *PendingQuery) bool {
		fmt.Fprintf(&b, "%d next_try=%d tries=%d\n", pq.ID, pq.NextTryMs, pq.Tries)
		return true
	})

	fmt.Fprint(s.sink, b.String())
}
