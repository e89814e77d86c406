package node

import "github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"

// candidateTable is the fixed-capacity, LRU-evicting set of recently
// heard stations a node may pick a parent from (spec §4.3).
type candidateTable struct {
	slots [CandidateCap]Candidate
	n     int
}

// upsert refreshes id's candidate entry, or inserts a new one, evicting
// the least-recently-seen slot when full.
func (t *candidateTable) upsert(id byte, rssi int8, hops uint8, now uint32) {
	for i := 0; i < t.n; i++ {
		if t.slots[i].ID == id {
			t.slots[i] = Candidate{ID: id, RSSI: rssi, Hops: hops, LastSeenMs: now}
			return
		}
	}
	if t.n < CandidateCap {
		t.slots[t.n] = Candidate{ID: id, RSSI: rssi, Hops: hops, LastSeenMs: now}
		t.n++
		return
	}
	oldest := 0
	for i := 1; i < t.n; i++ {
		if clock.Before(t.slots[i].LastSeenMs, t.slots[oldest].LastSeenMs) {
			oldest = i
		}
	}
	t.slots[oldest] = Candidate{ID: id, RSSI: rssi, Hops: hops, LastSeenMs: now}
}

// pickParent returns the best candidate newer than maxAgeMs by
// lexicographic key (higher rssi, lower hops, lower id), or
// (Candidate{}, false) if none qualify (spec §4.3 "Parent pick").
func (t *candidateTable) pickParent(now uint32, maxAgeMs uint32) (Candidate, bool) {
	var best Candidate
	found := false
	for i := 0; i < t.n; i++ {
		c := t.slots[i]
		if clock.Elapsed(now, c.LastSeenMs) > maxAgeMs {
			continue
		}
		if !found || better(c, best) {
			best = c
			found = true
		}
	}
	return best, found
}

// better reports whether a outranks b under (higher rssi, lower hops,
// lower id) lexicographic order.
func better(a, b Candidate) bool {
	if a.RSSI != b.RSSI {
		return a.RSSI > b.RSSI
	}
	if a.Hops != b.Hops {
		return a.Hops < b.Hops
	}
	return a.ID < b.ID
}
