package node

import "github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"

// HandleFrame is the node's receive-path dispatch (spec §4.3's inbound
// handling plus the §4.4 relay path). rssi is the driver's reading for
// the packet that carried f.
func (n *Node) HandleFrame(f frame.Frame, rssi int8) {
	now := n.clk.NowMs()

	n.observeCandidate(f.Src, rssi, f.Hops, now)
	n.touchParentLiveness(f.Src, rssi, now)

	if f.Dst != n.ID && f.Dst != frame.BroadcastID {
		n.relay(f, now)
		return
	}

	switch f.Type {
	case frame.TypeJoinReq:
		if n.Attached() {
			n.handleJoinReqAsParent(f.Src, now)
		}
		// Unattached nodes never accept a JOIN_REQ themselves; spec §4.3
		// only defines this path "when self has a parent".

	case frame.TypeJoinAck:
		n.handleJoinAck(f.Src, rssi, now)

	case frame.TypeJoinNack:
		n.handleJoinNack()

	case frame.TypeQuery:
		n.MyHopToGW = f.Hops
		sp := frame.StatusPayload{Parent: n.ParentID, Hops: f.Hops, RSSI: n.ParentRSSI}
		n.sendOrDefer(frame.Frame{
			Header:  frame.Header{Src: n.ID, Dst: frame.GatewayID, Hops: 0, Type: frame.TypeState},
			Payload: sp.Encode(),
		}, now)

	case frame.TypeDataAck:
		// Acknowledges a prior DATA_UP; nothing further to do.

	default:
		// Frame addressed to self of an unsupported type: silently
		// dropped (spec §4.4).
	}
}
