// Package probe invokes the external WireGuard control tool and turns its
// output into peer registry updates, per spec.md §4.3/§6.
package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kagerou/wg-monitor/peer"
	"go.uber.org/zap"
)

// Row is one parsed line of `wg show <iface> latest-handshakes` output.
type Row struct {
	Key           peer.Key
	NeverSeen     bool
	LastHandshake time.Time
}

// Probe invokes the external VPN control tool for one interface.
type Probe struct {
	Tool  string
	Iface string
}

// New returns a Probe for iface, resolving the tool path per the WG
// environment variable override (spec.md §6).
func New(iface string) *Probe {
	return &Probe{Tool: ResolvePath(), Iface: iface}
}

// ResolvePath honors the WG environment variable if set and non-empty,
// defaulting to /usr/bin/wg.
func ResolvePath() string {
	if wg := os.Getenv("WG"); wg != "" {
		return wg
	}
	return "/usr/bin/wg"
}

// Handshakes runs `<tool> show <iface> latest-handshakes` and parses its
// output into Rows. It never partially mutates caller state; row-level
// parse failures are skipped, not fatal (spec.md §4.3).
func (p *Probe) Handshakes(ctx context.Context) ([]Row, error) {
	out, err := p.run(ctx, "latest-handshakes")
	if err != nil {
		return nil, err
	}
	return parseHandshakes(out), nil
}

// PublicKey runs `<tool> show <iface> public-key` and returns the single
// line of output, trimmed.
func (p *Probe) PublicKey(ctx context.Context) (string, error) {
	out, err := p.run(ctx, "public-key")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (p *Probe) run(ctx context.Context, subcommand string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.Tool, "show", p.Iface, subcommand)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	var notFound *exec.Error
	if (errors.As(err, &notFound) && errors.Is(notFound.Err, exec.ErrNotFound)) || errors.Is(err, os.ErrNotExist) {
		return nil, classify(p.Iface, true, err.Error())
	}
	combined := stderr.String()
	if combined == "" {
		combined = stdout.String()
	}
	zap.S().Debugf("wg show %s %s failed: %s\nstderr: %s", p.Iface, subcommand, err, combined)
	return nil, classify(p.Iface, false, combined)
}

// parseHandshakes parses the TSV rows of `wg show <iface> latest-handshakes`.
func parseHandshakes(out []byte) []Row {
	var rows []Row
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		tab := strings.IndexByte(line, '\t')
		if tab == -1 {
			continue
		}
		key := peer.Key(line[:tab])
		rest := line[tab+1:]
		if rest == "" {
			continue
		}
		if rest[0] == '0' {
			rows = append(rows, Row{Key: key, NeverSeen: true})
			continue
		}
		secs, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			zap.S().Debugf("probe: skipping row with malformed timestamp %q for %s: %s", rest, key, err)
			continue
		}
		rows = append(rows, Row{Key: key, LastHandshake: time.Unix(secs, 0)})
	}
	return rows
}

// Apply upserts every row into the registry, per spec.md §4.3's field
// update rules.
func Apply(r *peer.Registry, rows []Row) {
	for _, row := range rows {
		p := r.Upsert(row.Key)
		if row.NeverSeen {
			p.NeverSeen = true
			continue
		}
		p.LastHandshake = row.LastHandshake
		p.NeverSeen = false
	}
}
