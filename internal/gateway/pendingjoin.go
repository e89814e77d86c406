package gateway

import "github.com/bits-and-blooms/bitset"

type pendingJoinTable struct {
	slots    [PendingJoinCap]PendingJoin
	occupied *bitset.BitSet
}

func newPendingJoinTable() *pendingJoinTable {
	return &pendingJoinTable{occupied: bitset.New(PendingJoinCap)}
}

func (t *pendingJoinTable) find(id byte) (*PendingJoin, bool) {
	for i, ok := t.occupied.NextSet(0); ok; i, ok = t.occupied.NextSet(i + 1) {
		if t.slots[i].ID == id {
			return &t.slots[i], true
		}
	}
	return nil, false
}

// upsert returns an existing pending-join for id, or inserts a fresh one
// (NextTryMs defaults to 0, meaning "try immediately") if capacity allows.
func (t *pendingJoinTable) upsert(id byte) (*PendingJoin, bool) {
	if rec, ok := t.find(id); ok {
		return rec, true
	}
	idx, ok := t.occupied.NextClear(0)
	if !ok || idx >= PendingJoinCap {
		return nil, false
	}
	t.occupied.Set(idx)
	t.slots[idx] = PendingJoin{ID: id}
	return &t.slots[idx], true
}

func (t *pendingJoinTable) remove(id byte) {
	for i, ok := t.occupied.NextSet(0); ok; i, ok = t.occupied.NextSet(i + 1) {
		if t.slots[i].ID == id {
			t.occupied.Clear(i)
			t.slots[i] = PendingJoin{}
			return
		}
	}
}

// forEach visits every live pending join. fn may mutate the entry; if it
// returns false, the entry is removed.
func (t *pendingJoinTable) forEach(fn func(*PendingJoin) bool) {
	for i, ok := t.occupied.NextSet(0); ok; {
		next, hasNext := t.occupied.NextSet(i + 1)
		if !fn(&t.slots[i]) {
			t.occupied.Clear(i)
			t.slots[i] = PendingJoin{}
		}
		i, ok = next, hasNext
	}
}
