package body

import (
	"strings"
	"testing"
)

const sample = `
# English
language=en
powerRestored=$serverName is back up.
peerSingular=peer
peerPlural=peers

language=debug
powerRestored=DEBUG $serverName
`

func TestLoadCatalogParsesBlocksAndSkipsDebug(t *testing.T) {
	cat, err := LoadCatalog(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if len(cat) != 1 {
		t.Fatalf("len(cat) = %d; want 1 (debug excluded)", len(cat))
	}
	en, ok := cat["en"]
	if !ok {
		t.Fatal("missing en translation")
	}
	if en.PowerRestored != "$serverName is back up." {
		t.Fatalf("PowerRestored = %q", en.PowerRestored)
	}
}

func TestLoadCatalogMissingLanguageKeyErrors(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("powerRestored=x\n"))
	if err == nil {
		t.Fatal("expected an error for a block missing language=")
	}
}
