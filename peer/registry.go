package peer

import (
	"time"

	"github.com/kagerou/wg-monitor/fsm"
	"go.uber.org/zap"
)

// Registry is the keyed store of Peer records. It is owned exclusively by
// the orchestrator (spec.md §5); no locking is provided or needed.
type Registry struct {
	peers map[Key]*Peer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: map[Key]*Peer{}}
}

// Upsert returns the Peer for key, creating an Unset one if this is the
// first time key has been seen.
func (r *Registry) Upsert(key Key) *Peer {
	p, ok := r.peers[key]
	if !ok {
		p = &Peer{Key: key, State: fsm.Unset, NeverSeen: true}
		r.peers[key] = p
	}
	return p
}

// Get returns the Peer for key, if any.
func (r *Registry) Get(key Key) (*Peer, bool) {
	p, ok := r.peers[key]
	return p, ok
}

// Len returns the number of peers tracked, including ones not in the
// configured peer set.
func (r *Registry) Len() int { return len(r.peers) }

// Step runs the state machine over every registered peer whose key is in
// configured, per spec.md §4.1/§4.5. It returns the keys of every peer
// that counted as a change this cycle (the caller can look up each key's
// resulting state via Get, e.g. to test spec.md §4.6's "only returns"
// condition).
func (r *Registry) Step(now, processStart time.Time, lostThreshold time.Duration, configured map[Key]struct{}) (changed []Key) {
	for key, p := range r.peers {
		if _, ok := configured[key]; !ok {
			continue
		}
		timedOut := p.Age(now, processStart) > lostThreshold
		next, didChange := fsm.Step(p.State, timedOut)
		if next != p.State {
			zap.S().Debugf("peer %s: %s -> %s (timed out: %v)", key, p.State, next, timedOut)
		}
		p.State = next
		if didChange {
			changed = append(changed, key)
		}
	}
	return changed
}
