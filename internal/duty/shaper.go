// Package duty implements the transmit shaper every role gates its
// on-air frames through: a millisecond token bucket sized to a 1%
// regulatory duty-cycle budget (spec §4.1).
package duty

import (
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/radio"
)

const (
	// CapMs is the steady-state token ceiling: 36s of on-air budget.
	CapMs int32 = 36_000
	// BorrowMs is how far into debt tokens may go before cool-down kicks in.
	BorrowMs int32 = 12_000
)

// Result is the outcome of a TransmitShaped call.
type Result int

const (
	Sent Result = iota
	Deferred
	RadioError
)

func (r Result) String() string {
	switch r {
	case Sent:
		return "Sent"
	case Deferred:
		return "Deferred"
	case RadioError:
		return "RadioError"
	default:
		return "Unknown"
	}
}

// Shaper is the single, process-wide duty-cycle owner for a role. It
// must not be duplicated across modules (spec §9) — construct one and
// share it between the supervisor/join-engine and anything else that
// transmits.
type Shaper struct {
	clk    clock.Clock
	driver radio.Driver

	freeAtMs        uint32
	tokensMs        int32
	lastRefillMs    uint32
	refillRemainder uint32
	refilled        bool
}

// New returns a Shaper with a full token bucket, gating driver's
// transmits through clk.
func New(clk clock.Clock, driver radio.Driver) *Shaper {
	return &Shaper{
		clk:      clk,
		driver:   driver,
		tokensMs: CapMs,
	}
}

// FreeAtMs reports the earliest millisecond at which a transmit may be
// attempted again; used by callers that need to schedule a retry.
func (s *Shaper) FreeAtMs() uint32 {
	return s.freeAtMs
}

// TokensMs reports the current signed millisecond budget, for
// observability dumps and tests.
func (s *Shaper) TokensMs() int32 {
	return s.tokensMs
}

// TransmitShaped attempts to send frame, gated by the duty-cycle budget.
func (s *Shaper) TransmitShaped(frame []byte) (Result, error) {
	now := s.clk.NowMs()
	if clock.Before(now, s.freeAtMs) {
		return Deferred, nil
	}

	s.refill(now)

	t0 := s.clk.NowMs()
	err := s.driver.Transmit(frame)
	t1 := s.clk.NowMs()
	if err != nil {
		return RadioError, err
	}

	onAir := clock.Elapsed(t1, t0)
	if onAir < 1 {
		onAir = 1
	}
	s.tokensMs -= int32(onAir)

	if s.tokensMs < -BorrowMs {
		overdraft := -BorrowMs - s.tokensMs
		s.freeAtMs = t1 + uint32(overdraft)*100
	} else {
		s.freeAtMs = t1
	}

	_ = s.driver.StartReceive()
	return Sent, nil
}

func (s *Shaper) refill(now uint32) {
	if !s.refilled {
		s.lastRefillMs = now
		s.refilled = true
		return
	}
	elapsed := clock.Elapsed(now, s.lastRefillMs)
	whole := elapsed / 100
	rem := elapsed % 100

	s.tokensMs += int32(whole)
	s.refillRemainder += rem
	if s.refillRemainder >= 100 {
		s.tokensMs++
		s.refillRemainder -= 100
	}
	if s.tokensMs > CapMs {
		s.tokensMs = CapMs
	}
	s.lastRefillMs = now
}
