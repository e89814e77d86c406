package radio

import (
	"time"

	"github.com/sony/gobreaker"
)

// BreakerTransmitter wraps a Driver's Transmit call with a circuit
// breaker so a radio stuck returning hardware errors (antenna fault, SPI
// timeout) is cut off for a cooldown window instead of being invoked
// every tick. This is purely a resilience layer: spec §7 already treats
// a radio driver error as "logged; no state mutation", and that contract
// is unchanged here — gobreaker.ErrOpenState is just another error the
// shaper's caller logs and moves on from.
type BreakerTransmitter struct {
	Driver
	cb *gobreaker.CircuitBreaker
}

// NewBreakerTransmitter wraps driver with a breaker that opens after 3
// consecutive transmit failures and stays open for cooldown before
// allowing a single trial transmit through again.
func NewBreakerTransmitter(driver Driver, cooldown time.Duration) *BreakerTransmitter {
	settings := gobreaker.Settings{
		Name:        "radio-transmit",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &BreakerTransmitter{
		Driver: driver,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

// Transmit runs the underlying driver's Transmit through the breaker.
func (b *BreakerTransmitter) Transmit(frame []byte) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.Driver.Transmit(frame)
	})
	return err
}
