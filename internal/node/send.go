package node

import (
	"time"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/meshnet"
)

// ms converts a config timing duration to the uint32 millisecond form
// the rest of this package works in.
func ms(d time.Duration) uint32 {
	return uint32(d.Milliseconds())
}

// send encodes and shapes f, logging (never propagating) any encode or
// radio error, per spec §7; a Deferred outcome is returned without a
// log line. The logged error is always a
// meshnet.Error so the framing/radio/breaker categories stay
// distinguishable in the log stream.
func (n *Node) send(f frame.Frame) duty.Result {
	raw, err := f.Encode()
	if err != nil {
		merr := meshnet.Wrap(meshnet.ErrCodeFraming, "drop outgoing frame: encode", err)
		n.logger.Warn(merr.Error(), "type", f.Type.String())
		return duty.RadioError
	}
	res, err := n.shaper.TransmitShaped(raw)
	if err != nil {
		merr := meshnet.Wrap(meshnet.RadioErrorCode(err), "radio transmit error", err)
		n.logger.Warn(merr.Error(), "type", f.Type.String(), "dst", f.Dst)
	}
	return res
}
