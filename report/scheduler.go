// Package report implements the backoff-schedule report trigger of
// spec.md §4.6.
package report

import (
	"time"

	"github.com/kagerou/wg-monitor/peer"
)

// Schedule is the five-element ordered reminder cadence (spec.md §3);
// each element must be >= the previous. DefaultSchedule matches spec.md's
// defaults.
type Schedule [5]time.Duration

var DefaultSchedule = Schedule{
	6 * time.Hour,
	24 * time.Hour,
	48 * time.Hour,
	72 * time.Hour,
	7 * 24 * time.Hour,
}

// At returns schedule[min(counter, 4)] (spec.md §9's getDelay helper).
func (s Schedule) At(counter int) time.Duration {
	if counter > 4 {
		counter = 4
	}
	if counter < 0 {
		counter = 0
	}
	return s[counter]
}

// Scheduler tracks the two pieces of state carried across cycles by
// spec.md §4.6.
type Scheduler struct {
	LastReportTime  time.Time
	ReminderCounter int
	Schedule        Schedule
}

// NewScheduler returns a Scheduler with the given reminder schedule and
// zero initial state.
func NewScheduler(schedule Schedule) *Scheduler {
	return &Scheduler{Schedule: schedule}
}

// Decision is the outcome of Decide: whether to report this cycle, and
// enough context for Commit to update state correctly afterward.
type Decision struct {
	ShouldReport bool
	ShouldRemind bool
	OnlyReturns  bool
}

// Decide implements spec.md §4.6 steps 1-3. changed is the set of peer
// keys that counted as a state change this cycle (peer.Registry.Step's
// return value); it is what onlyReturns is judged against, since a bucket
// like StillLost can hold both freshly-changed and steady peers. A cycle
// with any change is never a reminder: ShouldRemind is only set when
// nothing changed and an outage has outlasted the current delay.
func (s *Scheduler) Decide(now time.Time, b peer.Buckets, changed []peer.Key, justStarted bool) Decision {
	changedAnything := len(changed) > 0
	shouldRemind := !changedAnything && !b.AllPresent() && now.Sub(s.LastReportTime) >= s.Schedule.At(s.ReminderCounter)
	shouldReport := changedAnything || justStarted || shouldRemind
	onlyReturns := changedAnything && allInJustReturned(b, changed)
	return Decision{ShouldReport: shouldReport, ShouldRemind: shouldRemind, OnlyReturns: onlyReturns}
}

// allInJustReturned reports whether every key in changed is a member of
// b.JustReturned (spec.md §4.6's "only_returns" condition).
func allInJustReturned(b peer.Buckets, changed []peer.Key) bool {
	justReturned := make(map[peer.Key]struct{}, len(b.JustReturned))
	for _, p := range b.JustReturned {
		justReturned[p.Key] = struct{}{}
	}
	for _, key := range changed {
		if _, ok := justReturned[key]; !ok {
			return false
		}
	}
	return true
}

// Commit implements spec.md §4.6 steps 4-6, applied after dispatch.
func (s *Scheduler) Commit(now time.Time, d Decision, allPresent, success bool) {
	if !d.ShouldReport || !success {
		return
	}
	if d.OnlyReturns {
		return
	}
	s.LastReportTime = now
	if allPresent {
		s.ReminderCounter = 0
	} else if d.ShouldRemind && s.ReminderCounter < 4 {
		s.ReminderCounter++
	}
}
