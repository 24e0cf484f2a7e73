// Package notify dispatches notifications over an external command
// and/or HTTP POST, with per-URL retry, per spec.md §4.8.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kagerou/wg-monitor/peer"
	"go.uber.org/zap"
)

// Mode selects which channels Dispatch uses.
type Mode int

const (
	ModeURLOnly Mode = iota
	ModeCommandOnly
	ModeBoth
)

const (
	maxAttempts = 10
	retryDelay  = 5 * time.Second
	postTimeout = 10 * time.Second
)

// Dispatcher runs the external notification command and/or POSTs to the
// configured URLs.
type Dispatcher struct {
	Mode     Mode
	Command  string
	URLs     []string
	CABundle string
	DryRun   bool

	client *http.Client
	// postOneDelay is the wait between POST attempts; NewDispatcher sets
	// it to retryDelay, and a zero value means no wait. Tests set it to
	// zero to avoid real multi-second sleeps while still exercising the
	// attempt-count logic.
	postOneDelay time.Duration
}

// NewDispatcher builds a Dispatcher. caBundle may be empty to use the
// system trust store.
func NewDispatcher(mode Mode, command string, urls []string, caBundle string) (*Dispatcher, error) {
	client, err := newHTTPClient(caBundle)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{Mode: mode, Command: command, URLs: urls, CABundle: caBundle, client: client, postOneDelay: retryDelay}, nil
}

func newHTTPClient(caBundle string) (*http.Client, error) {
	transport := &http.Transport{DisableKeepAlives: true}
	if caBundle != "" {
		pem, err := os.ReadFile(caBundle)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("CA bundle %s contains no usable certificates", caBundle)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}
	return &http.Client{Transport: transport, Timeout: postTimeout}, nil
}

// Dispatch implements the behavior matrix of spec.md §4.8, returning
// overall success.
func (d *Dispatcher) Dispatch(ctx context.Context, lines []string, cycle int, b peer.Buckets, subject string) bool {
	text := strings.Join(lines, "\n")

	if d.DryRun {
		fmt.Println(text)
		return true
	}

	var commandOK, urlsOK = true, true
	runCommand := d.Mode == ModeCommandOnly || d.Mode == ModeBoth
	runURLs := d.Mode == ModeURLOnly || d.Mode == ModeBoth

	if runCommand {
		commandOK = d.runCommand(ctx, text, cycle, b)
	}
	if runURLs {
		urlsOK = d.postAll(ctx, text, subject)
	}

	switch d.Mode {
	case ModeCommandOnly:
		return commandOK
	case ModeURLOnly:
		return urlsOK
	default:
		return commandOK && urlsOK
	}
}

// runCommand invokes the external command with the six positional
// arguments of spec.md §6.
func (d *Dispatcher) runCommand(ctx context.Context, body string, cycle int, b peer.Buckets) bool {
	cmd := exec.CommandContext(ctx, d.Command,
		body,
		strconv.Itoa(cycle),
		joinKeys(b.JustLost),
		joinKeys(b.JustReturned),
		joinKeys(b.StillLost),
		joinKeys(b.Present),
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		zap.S().Errorf("notification command failed: %s\noutput:\n%s", err, out)
		return false
	}
	return true
}

func joinKeys(peers []*peer.Peer) string {
	keys := make([]string, len(peers))
	for i, p := range peers {
		keys[i] = string(p.Key)
	}
	return strings.Join(keys, " ")
}

// postAll POSTs body (with the subject prefix) to every configured URL,
// succeeding only if all URLs eventually succeed (spec.md §4.8).
func (d *Dispatcher) postAll(ctx context.Context, body, subject string) bool {
	payload := "Subject: " + subject + "\n" + body
	ok := true
	for _, url := range d.URLs {
		if !d.postOne(ctx, url, payload) {
			ok = false
		}
	}
	return ok
}

func (d *Dispatcher) postOne(ctx context.Context, url, payload string) bool {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(payload)))
		if err != nil {
			zap.S().Errorf("notify: building request for %s: %s", url, err)
			return false
		}
		req.ContentLength = int64(len(payload))
		req.Close = true

		resp, err := d.client.Do(req)
		if err != nil {
			zap.S().Debugf("notify: POST %s attempt %d/%d failed: %s", url, attempt, maxAttempts, err)
			if attempt < maxAttempts {
				time.Sleep(d.postOneDelay)
			}
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return true
		}
		if resp.StatusCode == http.StatusNotFound {
			zap.S().Errorf("notify: POST %s: 404, not retrying", url)
			return false
		}
		zap.S().Debugf("notify: POST %s attempt %d/%d: status %s", url, attempt, maxAttempts, resp.Status)
		if attempt < maxAttempts {
			time.Sleep(d.postOneDelay)
		}
	}
	zap.S().Errorf("notify: POST %s: exhausted %d attempts", url, maxAttempts)
	return false
}
