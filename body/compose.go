package body

import (
	"strconv"
	"strings"

	"github.com/kagerou/wg-monitor/peer"
)

const timestampFormat = "2006-01-02 15:04"

// Compose renders the localized, multi-section body described in
// spec.md §4.7, as a sequence of lines to be joined with "\n" by the
// caller.
func Compose(tr *Translation, b peer.Buckets, cycle int, serverName string) []string {
	if cycle == 0 {
		return []string{substitute(tr.PowerRestored, map[string]string{"$serverName": serverName})}
	}

	var lines []string
	rendered := false

	type section struct {
		peers  []*peer.Peer
		header string
		kind   string // "lastSeen" or "back"
	}
	sections := []section{
		{b.JustLost, tr.JustLostContactWith, "lastSeen"},
		{b.JustReturned, tr.JustRegainedContactWith, "back"},
		{b.StillLost, tr.StillLostContactWith, "lastSeen"},
	}
	for _, sec := range sections {
		if len(sec.peers) == 0 {
			continue
		}
		if rendered {
			lines = append(lines, "")
		}
		noun := tr.PeerSingular
		if len(sec.peers) != 1 {
			if tr.PeerPlural != "" {
				noun = tr.PeerPlural
			}
		}
		lines = append(lines, substitute(sec.header, map[string]string{
			"$numPeers": strconv.Itoa(len(sec.peers)),
			"$peerNoun": noun,
		}))
		for _, p := range sec.peers {
			lines = append(lines, "    "+peerRow(tr, p, sec.kind))
		}
		rendered = true
	}

	if b.AllPresent() && rendered {
		lines = append(lines, "", tr.NowHasContactWithAll)
	}
	return lines
}

func peerRow(tr *Translation, p *peer.Peer, kind string) string {
	name := DeriveDisplayName(p.Key).Render(tr)
	if p.NeverSeen {
		return name + ", " + tr.NotSeenSinceRestart
	}
	template := tr.LastSeen
	if kind == "back" {
		template = tr.Back
	}
	phrase := substitute(template, map[string]string{
		"$timestamp": p.LastHandshake.Format(timestampFormat),
	})
	return name + ", " + phrase
}

func substitute(s string, tokens map[string]string) string {
	for token, value := range tokens {
		s = strings.ReplaceAll(s, token, value)
	}
	return s
}
