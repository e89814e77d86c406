package gateway

import (
	"io"
	"log/slog"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/config"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/meshnet"
)

// Supervisor is the gateway's single cooperative-loop owner of the child
// table, the join handshake, and the periodic query/eviction machinery
// (spec §4.2). It owns no radio directly; it transmits exclusively
// through the shared duty-cycle Shaper, per spec §9's single-owner rule.
type Supervisor struct {
	clk    clock.Clock
	shaper *duty.Shaper
	timing config.Timing
	logger *slog.Logger

	children       *childTable
	pendingJoins   *pendingJoinTable
	pendingQueries *pendingQueryTable

	lastBeaconMs     uint32
	lastStatusDumpMs uint32
	lastQueryRoundMs uint32

	sink io.Writer
}

// NewSupervisor wires a Supervisor around a shared Shaper and timing
// config. sink receives periodic textual status dumps (spec §6).
func NewSupervisor(clk clock.Clock, shaper *duty.Shaper, timing config.Timing, sink io.Writer, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		clk:            clk,
		shaper:         shaper,
		timing:         timing,
		logger:         logger.With("component", "gateway"),
		children:       newChildTable(),
		pendingJoins:   newPendingJoinTable(),
		pendingQueries: newPendingQueryTable(),
		sink:           sink,
	}
}

// ChildCount reports the number of live children, used by Tick's beacon
// suppression rule (spec §4.2 step 6).
func (s *Supervisor) ChildCount() int {
	return s.children.count()
}

// send encodes and shapes f, logging (never propagating) any encode or
// radio error, per spec §7; a Deferred outcome is returned without a
// log line. The logged error is always a
// meshnet.Error so the framing/radio/breaker categories stay
// distinguishable in the log stream.
func (s *Supervisor) send(f frame.Frame) duty.Result {
	raw, err := f.Encode()
	if err != nil {
		merr := meshnet.Wrap(meshnet.ErrCodeFraming, "drop outgoing frame: encode", err)
		s.logger.Warn(merr.Error(), "type", f.Type.String())
		return duty.RadioError
	}
	res, err := s.shaper.TransmitShaped(raw)
	if err != nil {
		merr := meshnet.Wrap(meshnet.RadioErrorCode(err), "radio transmit error", err)
		s.logger.Warn(merr.Error(), "type", f.Type.String(), "dst", f.Dst)
	}
	return res
}
