package probe

import (
	"fmt"

	"golang.zx2c4.com/wireguard/wgctrl"
)

// LocalPublicKey reads this node's own WireGuard public key for iface
// directly via wgctrl, rather than shelling out to `wg show <iface>
// public-key` — the one place this daemon talks to the kernel's WireGuard
// state through the real Go client library instead of the external tool,
// used once at startup to derive ServerName (spec.md §3/§4.7).
func LocalPublicKey(iface string) (string, error) {
	client, err := wgctrl.New()
	if err != nil {
		return "", fmt.Errorf("wgctrl: %w", err)
	}
	defer client.Close()
	dev, err := client.Device(iface)
	if err != nil {
		return "", fmt.Errorf("wgctrl: device %s: %w", iface, err)
	}
	return dev.PublicKey.String(), nil
}
