// Package radio defines the boundary to the physical LoRa transceiver.
// The real driver (SPI to an SX126x/SX127x, board pin wiring, power
// management probes) is out of scope per spec §1 and lives in a
// board-support package that implements Driver; this module only depends
// on the interface.
package radio

// Driver is the fixed, synchronous interface the duty-cycle shaper and
// the relay engines are built against. Transmit is half-duplex and
// blocks for the full on-air time, matching spec §5 ("the only blocking
// call is the radio's synchronous transmit").
type Driver interface {
	// Transmit sends frame on air. It blocks until the transmission
	// completes or the driver reports a hardware error.
	Transmit(frame []byte) error
	// StartReceive puts the radio back into receive mode. The shaper
	// calls it after every successful transmit; a failed transmit does
	// not call it.
	StartReceive() error
	// ReadPacket is non-blocking: it returns the next buffered packet,
	// or ok=false if none is pending.
	ReadPacket() (data []byte, ok bool)
	// RSSI reports the signal strength, in dBm, of the most recently
	// received packet.
	RSSI() int8
	// PacketLength reports the length, in bytes, of the most recently
	// received packet.
	PacketLength() int
}
