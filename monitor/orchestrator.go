package monitor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kagerou/wg-monitor/body"
	"github.com/kagerou/wg-monitor/peer"
	"github.com/kagerou/wg-monitor/probe"
	"github.com/kagerou/wg-monitor/report"
	"go.uber.org/zap"
)

// Monitor runs the top-level cycle: probe -> step -> sort -> schedule ->
// dispatch -> sleep (spec.md §4.9).
type Monitor struct {
	ctx          *Context
	deps         *Deps
	registry     *peer.Registry
	scheduler    *report.Scheduler
	probe        *probe.Probe
	serverName   string
	processStart time.Time
	cycle        int
}

// New prepares a Monitor. It resolves ServerName once, per spec.md §3,
// before the first cycle runs.
func New(ctx *Context, deps *Deps) (*Monitor, error) {
	m := &Monitor{
		ctx:          ctx,
		deps:         deps,
		registry:     peer.NewRegistry(),
		scheduler:    report.NewScheduler(ctx.Schedule),
		probe:        probe.New(ctx.Iface),
		processStart: timeNow(),
	}
	name, err := m.resolveServerName()
	if err != nil {
		return nil, err
	}
	m.serverName = name
	return m, nil
}

func (m *Monitor) resolveServerName() (string, error) {
	if m.ctx.Hostname != "" {
		return m.ctx.Hostname, nil
	}
	key, err := probe.LocalPublicKey(m.ctx.Iface)
	if err != nil {
		return "", err
	}
	return body.DeriveDisplayName(peer.Key(key)).Render(m.deps.Translation), nil
}

// timeNow is a seam for tests; production always calls time.Now.
var timeNow = time.Now

// Run executes cycles until a fatal probe error occurs or ctx is
// cancelled. It returns the fatal error, or nil on clean cancellation.
//
// At startup, an absent interface is only tolerated when
// Context.WaitForInterface is set; otherwise it is fatal (spec.md §4.4).
// Once the first cycle has completed, an interface that disappears
// mid-run is always retried regardless of that flag.
func (m *Monitor) Run(ctx context.Context) error {
	if m.ctx.WaitForInterface {
		if err := probe.WaitForInterface(ctx, m.probe, probe.DefaultInterfaceRetry); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := m.runCycle(ctx); err != nil {
			var perr *probe.Error
			if errors.As(err, &perr) {
				switch perr.Kind {
				case probe.NoSuchInterface:
					if m.cycle == 0 && !m.ctx.WaitForInterface {
						return err
					}
					if waitErr := probe.WaitForInterface(ctx, m.probe, probe.DefaultInterfaceRetry); waitErr != nil {
						return waitErr
					}
					m.cycle++
					continue
				case probe.NetworkFailure, probe.Generic:
					zap.S().Errorf("cycle %d: transient probe error, skipping: %s", m.cycle, err)
					m.cycle++
					m.sleep(ctx)
					continue
				case probe.NeedElevation, probe.ToolMissing:
					return err
				}
			}
			return err
		}

		m.cycle++
		m.sleep(ctx)
	}
}

func (m *Monitor) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.ctx.Interval):
	}
}

// runCycle performs exactly one iteration of the cycle described in
// spec.md §4.9, returning any probe error it chose not to handle itself.
func (m *Monitor) runCycle(ctx context.Context) error {
	rows, err := m.probe.Handshakes(ctx)
	if err != nil {
		return err
	}
	probe.Apply(m.registry, rows)

	now := timeNow()
	changed := m.registry.Step(now, m.processStart, m.ctx.LostAfter, m.ctx.Peers)
	if m.ctx.Progress {
		m.logProgress(changed)
	}

	buckets := peer.SortBuckets(m.registry, m.ctx.Peers)
	justStarted := m.cycle == 0

	decision := m.scheduler.Decide(now, buckets, changed, justStarted)
	success := true
	if decision.ShouldReport {
		lines := body.Compose(m.deps.Translation, buckets, m.cycle, m.serverName)
		subject := strings.ReplaceAll(m.deps.Translation.Subject, "$serverName", m.serverName)
		success = m.deps.Dispatcher.Dispatch(ctx, lines, m.cycle, buckets, subject)
	}
	m.scheduler.Commit(now, decision, buckets.AllPresent(), success)
	return nil
}

func (m *Monitor) logProgress(changed []peer.Key) {
	for _, key := range changed {
		p, ok := m.registry.Get(key)
		if !ok {
			continue
		}
		zap.S().Infof("cycle %d: %s", m.cycle, p)
	}
}
