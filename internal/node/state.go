package node

import (
	"io"
	"log/slog"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/config"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
)

// BatteryProbe reads the board's battery voltage in millivolts. The real
// probe is board-specific and out of scope (spec §1); the default stub
// reports 0 ("unknown"), matching the original firmware's convention.
type BatteryProbe func() uint16

func zeroBattery() uint16 { return 0 }

// Node is the single cooperative-loop owner of this station's identity,
// candidate/child tables, join state, and deferred-TX queue (spec §4.3).
type Node struct {
	ID byte

	clk    clock.Clock
	shaper *duty.Shaper
	timing config.Timing
	logger *slog.Logger
	sink   io.Writer
	batt   BatteryProbe

	candidates *candidateTable
	children   *childTable
	deferred   [DeferredCap]DeferredEntry
	dedup      *relayDedup

	ParentID       byte
	ParentRSSI     int8
	LastParentRxMs uint32
	MyHopToGW      uint8

	NextJoinAtMs     uint32
	JoinAckDeadline  uint32
	JoinParentTrying byte

	lastStatusDumpMs uint32
	testSeq          uint32
}

// New constructs a Node with an empty attachment state (spec §3 "Node
// identity": parent_id = 0xFF, my_hop_to_gw = 0xFF on boot).
func New(id byte, clk clock.Clock, shaper *duty.Shaper, timing config.Timing, sink io.Writer, logger *slog.Logger, batt BatteryProbe) *Node {
	if logger == nil {
		logger = slog.Default()
	}
	if batt == nil {
		batt = zeroBattery
	}
	return &Node{
		ID:               id,
		clk:              clk,
		shaper:           shaper,
		timing:           timing,
		logger:           logger.With("component", "node", "node_id", id),
		sink:             sink,
		batt:             batt,
		candidates:       &candidateTable{},
		children:         newChildTable(),
		dedup:            newRelayDedup(),
		ParentID:         NoParent,
		ParentRSSI:       0,
		MyHopToGW:        UnknownHop,
		JoinParentTrying: NoParent,
	}
}

// Attached reports whether this node currently has a parent.
func (n *Node) Attached() bool {
	return n.ParentID != NoParent
}

// detach clears the parent and the whole local subtree: a lost parent
// invalidates every descendant, which will time out independently
// (spec §4.3 "Parent liveness").
func (n *Node) detach() {
	n.ParentID = NoParent
	n.MyHopToGW = UnknownHop
	n.children.clear()
}
