package node

import "github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"

// SendData originates a DATA_UP frame toward the gateway carrying app,
// through the shaper, falling back to the deferred queue on Deferred
// (spec §4.5). Only SendData and the STATE reply to a QUERY use that
// fallback: JOIN_ACK, JOIN_NACK, CHILD_ADD, CHILD_GONE and relayed
// frames are not queued when the shaper defers them, and a deferred
// JOIN_REQ is only rescheduled by driveJoin. When
// withTestHeader is set, a TestHeader is prefixed with this node's id,
// a fresh sequence number, the current clock reading, hop_cnt 0, and
// the battery probe's reading, matching the original firmware's
// diagnostic DATA_UP payloads.
func (n *Node) SendData(app []byte, withTestHeader bool) {
	now := n.clk.NowMs()

	payload := app
	if withTestHeader {
		n.testSeq++
		th := frame.TestHeader{
			Ver:       frame.TestHeaderVersion,
			TestID:    frame.TestMagic,
			Seq:       n.testSeq,
			Src:       uint32(n.ID),
			TxEpochMs: now,
			HopCnt:    0,
			BattMV:    n.batt(),
		}
		payload = append(th.Encode(), app...)
	}

	n.sendOrDefer(frame.Frame{
		Header:  frame.Header{Src: n.ID, Dst: frame.GatewayID, Hops: 0, Type: frame.TypeDataUp},
		Payload: payload,
	}, now)
}
