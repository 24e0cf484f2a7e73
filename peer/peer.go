// Package peer holds the peer registry: the keyed store of WireGuard
// peers and the per-cycle stepping pass over the state machine in
// package fsm.
package peer

import (
	"fmt"
	"time"

	"github.com/kagerou/wg-monitor/fsm"
)

// Key is a WireGuard base64 public key, 44 characters with a trailing
// '=', used verbatim as the peer's primary identifier (spec.md §3).
type Key string

// Valid reports whether k has the shape of a WireGuard public key.
// It does not attempt to base64-decode it; the probe and the peer-list
// parser both work on the wire text directly.
func (k Key) Valid() bool {
	return len(k) == 44 && k[43] == '='
}

func (k Key) String() string { return string(k) }

// Peer is one remote VPN participant tracked across polling cycles.
type Peer struct {
	Key           Key
	State         fsm.State
	LastHandshake time.Time
	NeverSeen     bool
}

// Age returns how long it has been since the peer's last handshake, using
// processStart as a stand-in reference when the peer has never been seen
// (spec.md §3's never_seen substitution rule).
func (p *Peer) Age(now, processStart time.Time) time.Duration {
	if p.NeverSeen {
		return now.Sub(processStart)
	}
	return now.Sub(p.LastHandshake)
}

func (p *Peer) String() string {
	if p.NeverSeen {
		return fmt.Sprintf("%s(%s, never seen)", p.Key, p.State)
	}
	return fmt.Sprintf("%s(%s, last %s)", p.Key, p.State, p.LastHandshake)
}
