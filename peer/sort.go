package peer

import (
	"sort"

	"github.com/kagerou/wg-monitor/fsm"
)

// Buckets is a snapshot partition of a Registry into four ordered
// sequences by state, sorted ascending by key (spec.md §3/§4.2).
type Buckets struct {
	Present      []*Peer
	JustReturned []*Peer
	JustLost     []*Peer
	StillLost    []*Peer
}

// AllPresent reports whether no peer is lost or still lost, irrespective
// of JustReturned (spec.md §3).
func (b Buckets) AllPresent() bool {
	return len(b.JustLost) == 0 && len(b.StillLost) == 0
}

// SortBuckets partitions r's peers into Buckets, skipping Unset entries
// and peers outside configured. It is a pure function of the registry
// snapshot.
func SortBuckets(r *Registry, configured map[Key]struct{}) Buckets {
	var b Buckets
	for key, p := range r.peers {
		if _, ok := configured[key]; !ok {
			continue
		}
		switch p.State {
		case fsm.Present:
			b.Present = append(b.Present, p)
		case fsm.JustReturned:
			b.JustReturned = append(b.JustReturned, p)
		case fsm.JustLost:
			b.JustLost = append(b.JustLost, p)
		case fsm.StillLost:
			b.StillLost = append(b.StillLost, p)
		}
	}
	byKey := func(s []*Peer) func(i, j int) bool {
		return func(i, j int) bool { return s[i].Key < s[j].Key }
	}
	sort.Slice(b.Present, byKey(b.Present))
	sort.Slice(b.JustReturned, byKey(b.JustReturned))
	sort.Slice(b.JustLost, byKey(b.JustLost))
	sort.Slice(b.StillLost, byKey(b.StillLost))
	return b
}
