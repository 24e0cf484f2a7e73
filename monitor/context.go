// Package monitor wires the handshake probe, state machine, sorter,
// report scheduler and notification dispatcher into the top-level cycle
// described in spec.md §4.9.
package monitor

import (
	"time"

	"github.com/kagerou/wg-monitor/body"
	"github.com/kagerou/wg-monitor/notify"
	"github.com/kagerou/wg-monitor/peer"
	"github.com/kagerou/wg-monitor/report"
)

// Context is the immutable configuration for one monitor run (spec.md §3).
type Context struct {
	Iface     string
	Interval  time.Duration
	LostAfter time.Duration
	Schedule  report.Schedule

	Peers map[peer.Key]struct{}

	Mode     notify.Mode
	Command  string
	URLs     []string
	CABundle string

	Locale string
	DryRun bool

	WaitForInterface bool
	Progress         bool

	// Hostname overrides the public-key-derived ServerName when set
	// (spec.md §9 Open Question: prefer an explicit override when given).
	Hostname string
}

// Deps bundles the collaborators a Monitor needs beyond Context: the
// loaded translation and the dispatcher, both long-lived across cycles.
type Deps struct {
	Translation *body.Translation
	Dispatcher  *notify.Dispatcher
}
