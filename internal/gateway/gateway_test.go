package gateway

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/config"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/radio"
)

func newHarness(t *testing.T) (*Supervisor, *radio.Mock, *clock.Fake, *bytes.Buffer) {
	t.Helper()
	fc := clock.NewFake(0)
	mock := radio.NewMock(fc)
	shaper := duty.New(fc, mock)
	var sink bytes.Buffer
	return NewSupervisor(fc, shaper, config.DefaultTiming(), &sink, nil), mock, fc, &sink
}

func lastTransmitted(mock *radio.Mock) frame.Frame {
	raw := mock.Transmitted[len(mock.Transmitted)-1]
	f, err := frame.Decode(raw)
	if err != nil {
		panic(err)
	}
	return f
}

// S1: single-hop join — a JOIN_REQ immediately yields a JOIN_ACK and a
// tracked child.
func TestS1SingleHopJoin(t *testing.T) {
	s, mock, _, _ := newHarness(t)

	s.HandleFrame(frame.Frame{Header: frame.Header{Src: 5, Dst: GWID, Type: frame.TypeJoinReq}}, -40)

	require.Len(t, mock.Transmitted, 1)
	ack := lastTransmitted(mock)
	assert.Equal(t, frame.TypeJoinAck, ack.Type)
	assert.Equal(t, byte(5), ack.Dst)

	c, ok := s.children.find(5)
	require.True(t, ok)
	assert.Equal(t, GWID, c.Parent)
	assert.Equal(t, uint8(1), c.HopsToGW)
}

// S2: a second JOIN_REQ inside JOIN_ACK_GAP must not trigger a second
// JOIN_ACK transmit.
func TestS2JoinAckRateLimited(t *testing.T) {
	s, mock, fc, _ := newHarness(t)

	s.HandleFrame(frame.Frame{Header: frame.Header{Src: 7, Dst: GWID, Type: frame.TypeJoinReq}}, -40)
	require.Len(t, mock.Transmitted, 1)

	c, _ := s.children.find(7)
	firstAckMs := c.LastJoinAckMs

	fc.Advance(500) // well inside the 2s JoinAckGap default
	s.HandleFrame(frame.Frame{Header: frame.Header{Src: 7, Dst: GWID, Type: frame.TypeJoinReq}}, -40)
	assert.Len(t, mock.Transmitted, 1, "second join-ack must be suppressed within JOIN_ACK_GAP")
	assert.Equal(t, firstAckMs, c.LastJoinAckMs, "last_join_ack_ms must not change on a suppressed attempt")

	fc.Advance(uint32(s.timing.JoinAckGap.Milliseconds()) + 1)
	s.HandleFrame(frame.Frame{Header: frame.Header{Src: 7, Dst: GWID, Type: frame.TypeJoinReq}}, -40)
	assert.Len(t, mock.Transmitted, 2, "join-ack allowed again once the gap has elapsed")
}

// S3: a child that stops answering queries past MAX_MISSES is evicted.
func TestS3MissEviction(t *testing.T) {
	s, _, fc, _ := newHarness(t)
	s.HandleFrame(frame.Frame{Header: frame.Header{Src: 9, Dst: GWID, Type: frame.TypeJoinReq}}, -40)
	require.True(t, func() bool { _, ok := s.children.find(9); return ok }())

	for i := 0; i <= s.timing.MaxMisses; i++ {
		// Overheard non-STATE traffic from the child keeps it inside
		// CHILD_TIMEOUT, so only the unanswered queries can evict it.
		s.HandleFrame(frame.Frame{Header: frame.Header{Src: 9, Dst: 0x30, Type: frame.TypeJoinAck}}, -40)
		fc.Advance(uint32(s.timing.QueryPeriod.Milliseconds()))
		s.Tick(fc.NowMs())
		fc.Advance(uint32(s.timing.QueryTimeout.Milliseconds()) + 1)
		s.Tick(fc.NowMs())
	}

	_, ok := s.children.find(9)
	assert.False(t, ok, "child must be evicted after exceeding MAX_MISSES consecutive query misses")
}

// S6: a CHILD_ADD event from a relaying node registers the grandchild
// in the gateway's child table with the reported parent/hop count, and
// clears any pending-join the gateway may have been holding for it.
func TestS6ChildAddPropagation(t *testing.T) {
	s, _, _, _ := newHarness(t)
	s.pendingJoins.upsert(11)

	ev := frame.ChildEventPayload{Child: 11, Parent: 3, Hops: 2}
	s.HandleFrame(frame.Frame{
		Header:  frame.Header{Src: 3, Dst: GWID, Type: frame.TypeChildAdd},
		Payload: ev.Encode(),
	}, -50)

	c, ok := s.children.find(11)
	require.True(t, ok)
	assert.Equal(t, byte(3), c.Parent)
	assert.Equal(t, uint8(2), c.HopsToGW)

	_, pending := s.pendingJoins.find(11)
	assert.False(t, pending, "CHILD_ADD must clear any outstanding pending-join for the grandchild")
}

// CHILD_GONE must remove both the child record and any pending-join.
func TestChildGoneRemovesChild(t *testing.T) {
	s, _, _, _ := newHarness(t)
	s.HandleFrame(frame.Frame{Header: frame.Header{Src: 11, Dst: GWID, Type: frame.TypeJoinReq}}, -40)
	require.True(t, func() bool { _, ok := s.children.find(11); return ok }())
	s.pendingJoins.upsert(11)

	ev := frame.ChildEventPayload{Child: 11, Parent: 3, Hops: 2}
	s.HandleFrame(frame.Frame{
		Header:  frame.Header{Src: 3, Dst: GWID, Type: frame.TypeChildGone},
		Payload: ev.Encode(),
	}, -50)

	_, ok := s.children.find(11)
	assert.False(t, ok)
	_, pending := s.pendingJoins.find(11)
	assert.False(t, pending, "CHILD_GONE must clear any outstanding pending-join")
}

// Property #3: join idempotence — repeated JOIN_REQ from an already
// joined node never creates a second child record or duplicate
// pending-join entry.
func TestJoinIdempotence(t *testing.T) {
	s, mock, fc, _ := newHarness(t)

	for i := 0; i < 5; i++ {
		s.HandleFrame(frame.Frame{Header: frame.Header{Src: 13, Dst: GWID, Type: frame.TypeJoinReq}}, -40)
		fc.Advance(uint32(s.timing.JoinAckGap.Milliseconds()) + 1)
	}

	assert.Equal(t, 1, s.ChildCount())
	assert.LessOrEqual(t, len(mock.Transmitted), 5)
	_, pending := s.pendingJoins.find(13)
	assert.False(t, pending)
}

// Property #4: query progression — each child is queried at most once
// per QUERY_PERIOD and the outstanding query clears on a STATE reply.
func TestQueryProgression(t *testing.T) {
	s, mock, fc, _ := newHarness(t)
	s.HandleFrame(frame.Frame{Header: frame.Header{Src: 21, Dst: GWID, Type: frame.TypeJoinReq}}, -40)
	mock.Transmitted = nil

	fc.Advance(uint32(s.timing.QueryPeriod.Milliseconds()))
	s.Tick(fc.NowMs())

	var queries int
	for _, raw := range mock.Transmitted {
		f, err := frame.Decode(raw)
		require.NoError(t, err)
		if f.Type == frame.TypeQuery {
			queries++
		}
	}
	assert.Equal(t, 1, queries)

	c, _ := s.children.find(21)
	require.NotZero(t, c.LastQueryMs)

	sp := frame.StatusPayload{Parent: GWID, Hops: 1, RSSI: -42}
	s.HandleFrame(frame.Frame{
		Header:  frame.Header{Src: 21, Dst: GWID, Type: frame.TypeState},
		Payload: sp.Encode(),
	}, -42)
	assert.Zero(t, c.LastQueryMs, "a STATE reply must clear the outstanding query marker")

	// A second Tick inside the same QUERY_PERIOD must not re-query.
	mock.Transmitted = nil
	fc.Advance(1_000)
	s.Tick(fc.NowMs())
	for _, raw := range mock.Transmitted {
		f, err := frame.Decode(raw)
		require.NoError(t, err)
		assert.NotEqual(t, frame.TypeQuery, f.Type)
	}
}

func TestStatusDumpWritesToSink(t *testing.T) {
	s, _, fc, sink := newHarness(t)
	s.HandleFrame(frame.Frame{Header: frame.Header{Src: 30, Dst: GWID, Type: frame.TypeJoinReq}}, -40)

	fc.Advance(uint32(s.timing.StatusDumpPeriod.Milliseconds()))
	s.Tick(fc.NowMs())

	assert.Contains(t, sink.String(), "pending-joins:")
}
