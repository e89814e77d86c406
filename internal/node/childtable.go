package node

import "github.com/bits-and-blooms/bitset"

// childTable is this node's fixed-capacity set of directly-attached
// descendants (spec §3 "Node child"), same bitset-backed occupancy
// scheme as the gateway's child table (spec §9).
type childTable struct {
	slots    [ChildCap]ChildRecord
	occupied *bitset.BitSet
}

func newChildTable() *childTable {
	return &childTable{occupied: bitset.New(ChildCap)}
}

func (t *childTable) find(id byte) (*ChildRecord, bool) {
	for i, ok := t.occupied.NextSet(0); ok; i, ok = t.occupied.NextSet(i + 1) {
		if t.slots[i].ID == id {
			return &t.slots[i], true
		}
	}
	return nil, false
}

func (t *childTable) count() int {
	return int(t.occupied.Count())
}

// insert adds id if absent and capacity allows, returning ok=false if
// id is already present or the table is full.
func (t *childTable) insert(id byte, now uint32) bool {
	if _, ok := t.find(id); ok {
		return false
	}
	idx, ok := t.occupied.NextClear(0)
	if !ok || idx >= ChildCap {
		return false
	}
	t.occupied.Set(idx)
	t.slots[idx] = ChildRecord{ID: id, LastSeenMs: now}
	return true
}

func (t *childTable) remove(id byte) bool {
	for i, ok := t.occupied.NextSet(0); ok; i, ok = t.occupied.NextSet(i + 1) {
		if t.slots[i].ID == id {
			t.occupied.Clear(i)
			t.slots[i] = ChildRecord{}
			return true
		}
	}
	return false
}

// clear drops every child at once (spec §4.3 "Parent liveness": a lost
// parent invalidates the whole local subtree).
func (t *childTable) clear() {
	t.occupied.ClearAll()
	for i := range t.slots {
		t.slots[i] = ChildRecord{}
	}
}

func (t *childTable) forEach(fn func(*ChildRecord)) {
	for i, ok := t.occupied.NextSet(0); ok; i, ok = t.occupied.NextSet(i + 1) {
		fn(&t.slots[i])
	}
}
