package probe

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultInterfaceRetry is the poll interval used while an interface is
// absent, per spec.md §4.4.
const DefaultInterfaceRetry = 10 * time.Second

// WaitForInterface blocks, reinvoking p.Handshakes every retry, until the
// interface stops reporting NoSuchInterface (or ctx is cancelled). It
// returns nil once the probe succeeds; if the probe fails with any other
// error, it returns that error for the caller to classify.
func WaitForInterface(ctx context.Context, p *Probe, retry time.Duration) error {
	for {
		_, err := p.Handshakes(ctx)
		var perr *Error
		if err == nil || !(errors.As(err, &perr) && perr.Kind == NoSuchInterface) {
			return err
		}
		zap.S().Infof("interface %s absent, retrying in %s…", p.Iface, retry)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}
