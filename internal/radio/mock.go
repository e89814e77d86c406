package radio

import (
	"errors"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
)

// ErrHardware is returned by Mock.Transmit when ForceError is set, standing
// in for any antenna/SPI/regulatory-lockout fault the real driver could
// surface.
var ErrHardware = errors.New("radio: hardware error")

// Mock is a test double for Driver. It is driven by a clock.Fake so a
// test can assert exact on-air timing without touching a real radio.
type Mock struct {
	Clk *clock.Fake

	// TransmitLatencyMs is added to the fake clock on every successful
	// Transmit call, simulating on-air time at a given spreading factor.
	TransmitLatencyMs uint32

	// ForceError, when non-nil, is returned by the next Transmit call
	// (and then cleared) instead of succeeding.
	ForceError error

	rx     [][]byte // queue of inbound packets ReadPacket drains in order
	rxRSSI []int8

	lastRSSI int8
	lastLen  int

	Transmitted [][]byte // history of frames actually sent on air
}

// NewMock returns a Mock bound to the given fake clock.
func NewMock(clk *clock.Fake) *Mock {
	return &Mock{Clk: clk}
}

// Enqueue schedules a packet to be returned by a future ReadPacket call.
func (m *Mock) Enqueue(data []byte, rssi int8) {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.rx = append(m.rx, cp)
	m.rxRSSI = append(m.rxRSSI, rssi)
}

func (m *Mock) Transmit(frame []byte) error {
	if m.ForceError != nil {
		err := m.ForceError
		m.ForceError = nil
		return err
	}
	if m.Clk != nil {
		m.Clk.Advance(m.TransmitLatencyMs)
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	m.Transmitted = append(m.Transmitted, cp)
	return nil
}

func (m *Mock) StartReceive() error {
	return nil
}

func (m *Mock) ReadPacket() ([]byte, bool) {
	if len(m.rx) == 0 {
		return nil, false
	}
	data := m.rx[0]
	rssi := m.rxRSSI[0]
	m.rx = m.rx[1:]
	m.rxRSSI = m.rxRSSI[1:]
	m.lastRSSI = rssi
	m.lastLen = len(data)
	return data, true
}

func (m *Mock) RSSI() int8 {
	return m.lastRSSI
}

func (m *Mock) PacketLength() int {
	return m.lastLen
}
