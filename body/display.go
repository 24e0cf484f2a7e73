package body

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/kagerou/wg-monitor/peer"
)

// DisplayName is a peer's rendered name plus an optional 1-based phase
// number extracted from a vanity prefix of its public key (spec.md §4.7,
// GLOSSARY "Phase").
type DisplayName struct {
	Name  string
	Phase int
}

// DeriveDisplayName implements spec.md §4.7's peer-display name rule.
// It is deterministic and idempotent: re-deriving from the same key
// always yields the same DisplayName.
func DeriveDisplayName(key peer.Key) DisplayName {
	s := string(key)
	if len(s) > 7 {
		s = s[:7]
	}
	if i := strings.IndexByte(s, '+'); i != -1 {
		name := s[:i]
		phase := 0
		if i+1 < len(s) {
			c := s[i+1]
			if c >= '1' && c <= '3' {
				phase = int(c - '0')
			}
		}
		return DisplayName{Name: capitalize(name), Phase: phase}
	}
	if i := strings.IndexByte(s, '/'); i != -1 {
		return DisplayName{Name: capitalize(s[:i])}
	}
	return DisplayName{Name: capitalize(s)}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Render formats a DisplayName for output, expanding the translation's
// phaseDescription template when Phase > 0.
func (d DisplayName) Render(tr *Translation) string {
	if d.Phase <= 0 {
		return d.Name
	}
	s := tr.PhaseDescription
	s = strings.ReplaceAll(s, "$phaseName", d.Name)
	s = strings.ReplaceAll(s, "$phaseNumber", strconv.Itoa(d.Phase))
	return s
}
