package report

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kagerou/wg-monitor/peer"
)

func TestJustStartedAlwaysReports(t *testing.T) {
	s := NewScheduler(DefaultSchedule)
	d := s.Decide(time.Unix(0, 0), peer.Buckets{}, nil, true)
	if !d.ShouldReport {
		t.Fatal("ShouldReport = false on first cycle; want true")
	}
}

func TestReminderEscalationNeverExceedsFour(t *testing.T) {
	s := NewScheduler(DefaultSchedule)
	now := time.Unix(0, 0)
	lost := peer.Buckets{StillLost: []*peer.Peer{{Key: "A==="}}}
	// Loss report at t=0.
	d := s.Decide(now, lost, []peer.Key{"A==="}, false)
	s.Commit(now, d, lost.AllPresent(), true)
	if s.ReminderCounter != 0 {
		t.Fatalf("counter after initial loss = %d; want 0 (loss itself isn't a reminder)", s.ReminderCounter)
	}
	for i := 0; i < 10; i++ {
		now = now.Add(7 * 24 * time.Hour)
		d = s.Decide(now, lost, nil, false)
		if !d.ShouldRemind {
			t.Fatalf("iteration %d: ShouldRemind = false", i)
		}
		s.Commit(now, d, lost.AllPresent(), true)
		if s.ReminderCounter > 4 {
			t.Fatalf("counter = %d; must never exceed 4", s.ReminderCounter)
		}
	}
}

func TestReturnOnlyDoesNotResetCadence(t *testing.T) {
	s := NewScheduler(DefaultSchedule)
	s.LastReportTime = time.Unix(1000, 0)
	s.ReminderCounter = 2
	returned := peer.Buckets{
		JustReturned: []*peer.Peer{{Key: "A==="}},
		StillLost:    []*peer.Peer{{Key: "B==="}},
	}
	now := time.Unix(2000, 0)
	d := s.Decide(now, returned, []peer.Key{"A==="}, false)
	if !d.OnlyReturns {
		t.Fatal("OnlyReturns = false; want true")
	}
	s.Commit(now, d, returned.AllPresent(), true)
	if s.LastReportTime != time.Unix(1000, 0) || s.ReminderCounter != 2 {
		t.Fatalf("state changed on return-only report: last=%s counter=%d", s.LastReportTime, s.ReminderCounter)
	}
}

func TestMixedChangeIsNotOnlyReturns(t *testing.T) {
	s := NewScheduler(DefaultSchedule)
	b := peer.Buckets{
		JustReturned: []*peer.Peer{{Key: "A==="}},
		JustLost:     []*peer.Peer{{Key: "B==="}},
	}
	d := s.Decide(time.Unix(0, 0), b, []peer.Key{"A===", "B==="}, false)
	if d.OnlyReturns {
		t.Fatal("OnlyReturns = true for a mixed cycle; want false")
	}
}

func TestOnlyReturnsKeepsCounterEvenWhenAllPresent(t *testing.T) {
	s := NewScheduler(DefaultSchedule)
	s.ReminderCounter = 3
	s.LastReportTime = time.Unix(0, 0)
	allPresent := peer.Buckets{JustReturned: []*peer.Peer{{Key: "A==="}}}
	now := time.Unix(100000, 0)
	d := s.Decide(now, allPresent, []peer.Key{"A==="}, false)
	// A single returning peer with nothing else lost is both OnlyReturns
	// and AllPresent; OnlyReturns takes precedence per spec.md §4.6 step 5.
	s.Commit(now, d, allPresent.AllPresent(), true)
	if s.ReminderCounter != 3 {
		t.Fatalf("counter = %d; want unchanged 3 (only-returns short-circuits reset)", s.ReminderCounter)
	}
}

func TestScheduleAtClampsToLastElement(t *testing.T) {
	if DefaultSchedule.At(4) != DefaultSchedule[4] || DefaultSchedule.At(100) != DefaultSchedule[4] {
		t.Fatal("At() did not clamp to schedule[4]")
	}
}

func TestDecideMixedChangeDecisionShape(t *testing.T) {
	s := NewScheduler(DefaultSchedule)
	b := peer.Buckets{
		JustReturned: []*peer.Peer{{Key: "A==="}},
		JustLost:     []*peer.Peer{{Key: "B==="}},
	}
	got := s.Decide(time.Unix(0, 0), b, []peer.Key{"A===", "B==="}, false)
	want := Decision{ShouldReport: true, ShouldRemind: false, OnlyReturns: false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Decide() mismatch (-want +got):\n%s", diff)
	}
}
