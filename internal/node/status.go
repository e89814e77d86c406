package node

import (
	"fmt"
	"strings"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
)

// dump writes the periodic textual status report (spec §6
// "Observability"): one line per child, plus a pending-joins section
// (this node's own in-flight join attempt, if any) and a
// pending-queries section is not applicable on a node — only the
// gateway queries.
func (n *Node) dump(now uint32) {
	if n.sink == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "node %d parent=%d hop=%d\n", n.ID, n.ParentID, n.MyHopToGW)

	b.WriteString("id parent hops rssi age(ms) miss pending\n")
	n.children.forEach(func(c *ChildRecord) {
		fmt.Fprintf(&b, "%d %d %d %d %d %d %t\n",
			c.ID, n.ID, 0, 0, clock.Elapsed(now, c.LastSeenMs), 0, false)
	})

	b.WriteString("pending-joins:\n")
	if !n.Attached() && n.JoinParentTrying != NoParent {
		fmt.Fprintf(&b, "%d next_try=%d\n", n.JoinParentTrying, n.NextJoinAtMs)
	}

	fmt.Fprint(n.sink, b.String())
}
