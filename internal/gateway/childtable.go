package gateway

import "github.com/bits-and-blooms/bitset"

// childTable is the fixed-capacity, allocation-free child set (spec §9).
// occupied tracks which slots are live alongside the id==0-means-empty
// convention so free-slot lookup is O(words) instead of a linear scan.
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

// upsert finds id's record, or inserts a new zero-value one if capacity
// allows, and returns it along with whether it was newly created.
func (t *childTable) upsert(id byte) (*ChildRecord, bool, bool) {
	if rec, ok := t.find(id); ok {
		return rec, false, true
	}
	idx, ok := t.occupied.NextClear(0)
	if !ok || idx >= ChildCap {
		return nil, false, false
	}
	t.occupied.Set(idx)
	t.slots[idx] = ChildRecord{ID: id}
	return &t.slots[idx], true, true
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

func (t *childTable) count() int {
	return int(t.occupied.Count())
}

// forEach visits every live child record. The callback may mutate the
// record but must not change its ID.
func (t *childTable) forEach(fn func(*ChildRecord)) {
	for i, ok := t.occupied.NextSet(0); ok; i, ok = t.occupied.NextSet(i + 1) {
		fn(&t.slots[i])
	}
}
