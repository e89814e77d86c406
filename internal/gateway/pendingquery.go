package gateway

import "github.com/bits-and-blooms/bitset"

type pendingQueryTable struct {
	slots    [PendingQueryCap]PendingQuery
	occupied *bitset.BitSet
}

func newPendingQueryTable() *pendingQueryTable {
	return &pendingQueryTable{occupied: bitset.New(PendingQueryCap)}
}

func (t *pendingQueryTable) find(id byte) (*PendingQuery, bool) {
	for i, ok := t.occupied.NextSet(0); ok; i, ok = t.occupied.NextSet(i + 1) {
		if t.slots[i].ID == id {
			return &t.slots[i], true
		}
	}
	return nil, false
}

func (t *pendingQueryTable) insert(id byte) (*PendingQuery, bool) {
	if rec, ok := t.find(id); ok {
		return rec, true
	}
	idx, ok := t.occupied.NextClear(0)
	if !ok || idx >= PendingQueryCap {
		return nil, false
	}
	t.occupied.Set(idx)
	t.slots[idx] = PendingQuery{ID: id}
	return &t.slots[idx], true
}

func (t *pendingQueryTable) remove(id byte) {
	for i, ok := t.occupied.NextSet(0); ok; i, ok = t.occupied.NextSet(i + 1) {
		if t.slots[i].ID == id {
			t.occupied.Clear(i)
			t.slots[i] = PendingQuery{}
			return
		}
	}
}

// forEach visits every live pending query. fn may mutate the entry; if
// it returns false, the entry is removed.
func (t *pendingQueryTable) forEach(fn func(*PendingQuery) bool) {
	for i, ok := t.occupied.NextSet(0); ok; {
		next, hasNext := t.occupied.NextSet(i + 1)
		if !fn(&t.slots[i]) {
			t.occupied.Clear(i)
			t.slots[i] = PendingQuery{}
		}
		i, ok = next, hasNext
	}
}
