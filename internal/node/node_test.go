package node

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/config"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/radio"
)

func newHarness(t *testing.T, id byte) (*Node, *radio.Mock, *clock.Fake, *bytes.Buffer) {
	t.Helper()
	fc := clock.NewFake(0)
	mock := radio.NewMock(fc)
	shaper := duty.New(fc, mock)
	var sink bytes.Buffer
	return New(id, fc, shaper, config.DefaultTiming(), &sink, nil, nil), mock, fc, &sink
}

func transmittedAt(mock *radio.Mock, idx int) frame.Frame {
	f, err := frame.Decode(mock.Transmitted[idx])
	if err != nil {
		panic(err)
	}
	return f
}

func lastTransmitted(mock *radio.Mock) frame.Frame {
	return transmittedAt(mock, len(mock.Transmitted)-1)
}

// Property #5 / S5: parent selection picks the candidate with the best
// lexicographic key, preferring lower hops when RSSI ties.
func TestPickParentPrefersLowerHopsOnRSSITie(t *testing.T) {
	n, mock, fc, _ := newHarness(t, 0x50)
	n.observeCandidate(0xAA, -60, 2, fc.NowMs())
	n.observeCandidate(0xBB, -60, 1, fc.NowMs())

	n.driveJoin(fc.NowMs())

	require.Len(t, mock.Transmitted, 1)
	req := lastTransmitted(mock)
	assert.Equal(t, byte(0xBB), req.Dst)
}

// S5 continued: receiving JOIN_ACK from the picked parent attaches;
// receiving JOIN_NACK instead leaves the node unattached with a retry
// scheduled.
func TestS5ParentHandoverAckAttaches(t *testing.T) {
	n, _, fc, _ := newHarness(t, 0x50)
	n.observeCandidate(0xBB, -60, 1, fc.NowMs())
	n.driveJoin(fc.NowMs())

	n.HandleFrame(frame.Frame{Header: frame.Header{Src: 0xBB, Dst: 0x50, Type: frame.TypeJoinAck}, Payload: []byte{0}}, -60)

	assert.True(t, n.Attached())
	assert.Equal(t, byte(0xBB), n.ParentID)
}

func TestS5ParentHandoverNackLeavesUnattached(t *testing.T) {
	n, _, fc, _ := newHarness(t, 0x50)
	n.observeCandidate(0xBB, -60, 1, fc.NowMs())
	n.driveJoin(fc.NowMs())

	n.HandleFrame(frame.Frame{Header: frame.Header{Src: 0xBB, Dst: 0x50, Type: frame.TypeJoinNack}}, -60)

	assert.False(t, n.Attached())
	assert.Equal(t, NoParent, n.ParentID)
}

// Property #6: relay anti-loop — a frame whose src is neither the
// parent nor a known child must never be retransmitted.
func TestRelayAntiLoopGuard(t *testing.T) {
	n, mock, fc, _ := newHarness(t, 0x10)
	n.ParentID = 0x01 // attached, but frame below is from a stranger

	ok := n.relay(frame.Frame{Header: frame.Header{Src: 0x99, Dst: 0x02, Hops: 1, Type: frame.TypeDataUp}}, fc.NowMs())

	assert.False(t, ok)
	assert.Empty(t, mock.Transmitted)
}

func TestRelayForwardsFromParentAndIncrementsHops(t *testing.T) {
	n, mock, fc, _ := newHarness(t, 0x10)
	n.ParentID = 0x01

	ok := n.relay(frame.Frame{Header: frame.Header{Src: 0x01, Dst: frame.GatewayID, Hops: 2, Type: frame.TypeState}}, fc.NowMs())

	require.True(t, ok)
	require.Len(t, mock.Transmitted, 1)
	out := lastTransmitted(mock)
	assert.Equal(t, uint8(3), out.Hops)
	assert.Equal(t, byte(0x01), out.Src)
	assert.Equal(t, frame.GatewayID, out.Dst)
}

func TestRelayForwardsFromKnownChild(t *testing.T) {
	n, mock, fc, _ := newHarness(t, 0x10)
	n.children.insert(0x20, fc.NowMs())

	ok := n.relay(frame.Frame{Header: frame.Header{Src: 0x20, Dst: frame.GatewayID, Hops: 1, Type: frame.TypeDataUp}}, fc.NowMs())

	assert.True(t, ok)
	assert.Len(t, mock.Transmitted, 1)
}

// Property #7: hop cap — a frame already at MAX_HOPS is never forwarded.
func TestRelayHopCap(t *testing.T) {
	n, mock, fc, _ := newHarness(t, 0x10)
	n.ParentID = 0x01

	ok := n.relay(frame.Frame{Header: frame.Header{Src: 0x01, Dst: frame.GatewayID, Hops: frame.MaxHops, Type: frame.TypeState}}, fc.NowMs())

	assert.False(t, ok)
	assert.Empty(t, mock.Transmitted)
}

// Relay dedup: an exact duplicate of an already-forwarded frame within
// the dedup window is suppressed.
func TestRelayDedupSuppressesExactDuplicate(t *testing.T) {
	n, mock, fc, _ := newHarness(t, 0x10)
	n.ParentID = 0x01
	f := frame.Frame{Header: frame.Header{Src: 0x01, Dst: frame.GatewayID, Hops: 2, Type: frame.TypeState}}

	ok1 := n.relay(f, fc.NowMs())
	ok2 := n.relay(f, fc.NowMs())

	assert.True(t, ok1)
	assert.False(t, ok2, "identical frame seen again inside the dedup window must be suppressed")
	assert.Len(t, mock.Transmitted, 1)
}

// A node that has a parent accepts an inbound JOIN_REQ, replies
// JOIN_ACK, and forwards CHILD_ADD to the gateway.
func TestHandleJoinReqAsParent(t *testing.T) {
	n, mock, fc, _ := newHarness(t, 0x10)
	n.ParentID = 0x01
	n.MyHopToGW = 1

	n.HandleFrame(frame.Frame{Header: frame.Header{Src: 0x20, Dst: 0x10, Type: frame.TypeJoinReq}}, -50)

	require.Len(t, mock.Transmitted, 2)
	ack := transmittedAt(mock, 0)
	childAdd := transmittedAt(mock, 1)
	assert.Equal(t, frame.TypeJoinAck, ack.Type)
	assert.Equal(t, frame.TypeChildAdd, childAdd.Type)

	ev, err := frame.DecodeChildEventPayload(childAdd.Payload)
	require.NoError(t, err)
	assert.Equal(t, byte(0x20), ev.Child)
	assert.Equal(t, byte(0x10), ev.Parent)
	assert.Equal(t, uint8(2), ev.Hops)

	_, ok := n.children.find(0x20)
	assert.True(t, ok)
	_ = fc
}

// A lost parent detaches the node and clears every local child.
func TestLostParentDetachesAndClearsChildren(t *testing.T) {
	n, _, fc, _ := newHarness(t, 0x10)
	n.ParentID = 0x01
	n.LastParentRxMs = 0
	n.children.insert(0x20, 0)

	fc.Advance(uint32(n.timing.LostParentMs.Milliseconds()) + 1)
	n.checkParentTimeout(fc.NowMs())

	assert.False(t, n.Attached())
	assert.Equal(t, 0, n.children.count())
}

// Child pruning: a silent child past CHILD_SILENT_MS is announced as
// CHILD_GONE toward the gateway before its slot is freed.
func TestChildPruningAnnouncesChildGone(t *testing.T) {
	n, mock, fc, _ := newHarness(t, 0x10)
	n.ParentID = 0x01
	n.MyHopToGW = 2
	n.children.insert(0x20, 0)

	fc.Advance(uint32(n.timing.ChildSilentMs.Milliseconds()) + 1)
	n.Tick(fc.NowMs())

	var gone *frame.Frame
	for i := range mock.Transmitted {
		f := transmittedAt(mock, i)
		if f.Type == frame.TypeChildGone {
			gone = &f
		}
	}
	require.NotNil(t, gone, "pruning a silent child must emit CHILD_GONE")
	assert.Equal(t, frame.GatewayID, gone.Dst)
	ev, err := frame.DecodeChildEventPayload(gone.Payload)
	require.NoError(t, err)
	assert.Equal(t, byte(0x20), ev.Child)
	assert.Equal(t, byte(0x10), ev.Parent)
	assert.Equal(t, uint8(3), ev.Hops)

	_, ok := n.children.find(0x20)
	assert.False(t, ok, "the silent child's slot must be freed")
}

// driveJoin must honor a configured CandidateMaxAge rather than a fixed
// window: a candidate older than the configured age is never picked.
func TestDriveJoinHonorsConfiguredCandidateMaxAge(t *testing.T) {
	timing := config.DefaultTiming()
	timing.CandidateMaxAge = 1000 * time.Millisecond
	fc := clock.NewFake(0)
	mock := radio.NewMock(fc)
	shaper := duty.New(fc, mock)
	n := New(0x50, fc, shaper, timing, nil, nil, nil)

	n.observeCandidate(0xAA, -60, 1, fc.NowMs())
	fc.Advance(1500)
	n.driveJoin(fc.NowMs())

	assert.Empty(t, mock.Transmitted, "a candidate older than the configured CandidateMaxAge must not be picked")
}

// SendData with a test header prefixes the payload with a TestHeader
// carrying this node's id, an incrementing sequence, hop_cnt 0, and the
// battery probe's reading.
func TestSendDataWithTestHeader(t *testing.T) {
	fc := clock.NewFake(0)
	mock := radio.NewMock(fc)
	shaper := duty.New(fc, mock)
	n := New(0x22, fc, shaper, config.DefaultTiming(), nil, nil, func() uint16 { return 3700 })

	n.SendData([]byte("hi"), true)

	require.Len(t, mock.Transmitted, 1)
	out := lastTransmitted(mock)
	assert.Equal(t, frame.TypeDataUp, out.Type)
	assert.Equal(t, byte(0x22), out.Src)
	assert.Equal(t, frame.GatewayID, out.Dst)

	th, ok := frame.DecodeTestHeader(out.Payload)
	require.True(t, ok)
	assert.Equal(t, uint32(0x22), th.Src)
	assert.Equal(t, uint32(1), th.Seq)
	assert.Equal(t, uint8(0), th.HopCnt)
	assert.Equal(t, uint16(3700), th.BattMV)
	assert.Equal(t, []byte("hi"), out.Payload[frame.TestHeaderLen:])

	n.SendData([]byte("again"), true)
	out2 := lastTransmitted(mock)
	th2, ok := frame.DecodeTestHeader(out2.Payload)
	require.True(t, ok)
	assert.Equal(t, uint32(2), th2.Seq, "sequence increments per node instance")
}

// QUERY handling: a node replies STATE with its current parent/rssi and
// adopts the hop count the gateway reports.
func TestQueryRepliesState(t *testing.T) {
	n, mock, fc, _ := newHarness(t, 0x10)
	n.ParentID = 0x01
	n.ParentRSSI = -55

	n.HandleFrame(frame.Frame{Header: frame.Header{Src: frame.GatewayID, Dst: 0x10, Hops: 3, Type: frame.TypeQuery}}, -40)

	assert.Equal(t, uint8(3), n.MyHopToGW)
	require.Len(t, mock.Transmitted, 1)
	reply := lastTransmitted(mock)
	assert.Equal(t, frame.TypeState, reply.Type)
	sp, err := frame.DecodeStatusPayload(reply.Payload)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), sp.Parent)
	assert.Equal(t, int8(-55), sp.RSSI)
}
