package frame

import (
	"encoding/binary"
	"errors"
)

// ErrPayloadTooShort is returned by a payload Decode when the frame's
// declared length is smaller than the typed payload it should carry.
var ErrPayloadTooShort = errors.New("frame: payload shorter than expected struct")

// StatusPayload carries a node's current attachment state back to the
// gateway in a STATE frame (spec §6, 3 bytes packed).
type StatusPayload struct {
	Parent byte
	Hops   uint8
	RSSI   int8
}

const statusPayloadLen = 3

func (p StatusPayload) Encode() []byte {
	return []byte{p.Parent, p.Hops, byte(p.RSSI)}
}

func DecodeStatusPayload(b []byte) (StatusPayload, error) {
	if len(b) < statusPayloadLen {
		return StatusPayload{}, ErrPayloadTooShort
	}
	return StatusPayload{Parent: b[0], Hops: b[1], RSSI: int8(b[2])}, nil
}

// ChildEventPayload reports a tree membership change (CHILD_ADD /
// CHILD_GONE, spec §6, 3 bytes packed).
type ChildEventPayload struct {
	Child  byte
	Parent byte
	Hops   uint8
}

const childEventPayloadLen = 3

func (p ChildEventPayload) Encode() []byte {
	return []byte{p.Child, p.Parent, p.Hops}
}

func DecodeChildEventPayload(b []byte) (ChildEventPayload, error) {
	if len(b) < childEventPayloadLen {
		return ChildEventPayload{}, ErrPayloadTooShort
	}
	return ChildEventPayload{Child: b[0], Parent: b[1], Hops: b[2]}, nil
}

// TestMagic identifies a DATA_UP payload as carrying a TestHeader.
const TestMagic uint32 = 0xA5A5A5A5

// TestHeaderVersion is the only recognized TestHeader.Ver value.
const TestHeaderVersion uint8 = 1

// TestHeaderLen is the packed wire size of TestHeader: the sum of its
// fields (1+4+4+4+4+1+2) is 20 bytes. The spec's prose labels this
// header "16 bytes"; the original firmware's packed C struct (the
// source of truth for wire layout per spec §9) carries all seven fields
// with no padding, which sums to 20, so this module follows the struct
// layout rather than the prose label.
const TestHeaderLen = 20

// TestHeader is the optional diagnostic header a periodic test-frame
// injector (out of scope, spec §1) may prefix a DATA_UP payload with.
// BattMV is populated end-to-end from a board-specific battery probe
// (also out of scope) via an injectable BatteryProbe func.
type TestHeader struct {
	Ver       uint8
	TestID    uint32
	Seq       uint32
	Src       uint32
	TxEpochMs uint32
	HopCnt    uint8
	BattMV    uint16
}

func (h TestHeader) Encode() []byte {
	b := make([]byte, TestHeaderLen)
	b[0] = h.Ver
	binary.LittleEndian.PutUint32(b[1:5], h.TestID)
	binary.LittleEndian.PutUint32(b[5:9], h.Seq)
	binary.LittleEndian.PutUint32(b[9:13], h.Src)
	binary.LittleEndian.PutUint32(b[13:17], h.TxEpochMs)
	b[17] = h.HopCnt
	binary.LittleEndian.PutUint16(b[18:20], h.BattMV)
	return b
}

func DecodeTestHeader(b []byte) (TestHeader, bool) {
	if len(b) < TestHeaderLen {
		return TestHeader{}, false
	}
	h := TestHeader{
		Ver:       b[0],
		TestID:    binary.LittleEndian.Uint32(b[1:5]),
		Seq:       binary.LittleEndian.Uint32(b[5:9]),
		Src:       binary.LittleEndian.Uint32(b[9:13]),
		TxEpochMs: binary.LittleEndian.Uint32(b[13:17]),
		HopCnt:    b[17],
		BattMV:    binary.LittleEndian.Uint16(b[18:20]),
	}
	if h.Ver != TestHeaderVersion || h.TestID != TestMagic {
		return h, false
	}
	return h, true
}

// IsTestFrame reports whether a DATA_UP payload begins with a recognized
// test header (ver==1 && test_id==TestMagic, spec §4.4).
func IsTestFrame(payload []byte) bool {
	_, ok := DecodeTestHeader(payload)
	return ok
}

// BumpHopCnt increments a recognized test header's hop_cnt field in
// place, leaving the rest of the payload untouched. It is a no-op when
// payload does not carry a test header.
func BumpHopCnt(payload []byte) {
	if len(payload) < TestHeaderLen {
		return
	}
	if payload[0] != TestHeaderVersion || binary.LittleEndian.Uint32(payload[1:5]) != TestMagic {
		return
	}
	payload[17]++
}
