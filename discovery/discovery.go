// Package discovery resolves the peer-list and URL-list files under the
// search path of spec.md §6, and parses their line-oriented text format.
package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kagerou/wg-monitor/peer"
	"go.uber.org/zap"
)

// FindFile implements the first-match-wins search path of spec.md §6 for
// one logical file identified by base name b and per-interface override
// extension e. explicitPath, if non-empty and existing, always wins.
func FindFile(explicitPath, iface, base, ext string) (string, error) {
	candidates := []string{
		explicitPath,
		iface + ext,
		base,
		filepath.Join("/etc/wg-monitor", iface+ext),
		filepath.Join("/etc/wg-monitor", base),
	}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("discovery: no file found for base %q (tried %s)", base, strings.Join(candidates, ", "))
}

// PeerList reads a peer-list file per spec.md §6: one 44-character
// base64-with-trailing-'=' key per line, blank lines and #-comment lines
// (leading whitespace allowed) skipped, inline "#" comments stripped.
// Malformed lines are collected and logged, never fatal.
func PeerList(path string) ([]peer.Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("discovery: opening peer list %s: %w", path, err)
	}
	defer f.Close()

	var keys []peer.Key
	var invalid []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		key := peer.Key(trimmed)
		if !key.Valid() {
			invalid = append(invalid, fmt.Sprintf("line %d: %q", lineNo, trimmed))
			continue
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("discovery: reading peer list %s: %w", path, err)
	}
	if len(invalid) > 0 {
		zap.S().Errorf("discovery: peer list %s: %d invalid entries skipped: %s", path, len(invalid), strings.Join(invalid, "; "))
	}
	return keys, nil
}

// URLList reads a notification URL list file, same lexical rules as
// PeerList but with no length constraint on entries.
func URLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("discovery: opening URL list %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		urls = append(urls, trimmed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("discovery: reading URL list %s: %w", path, err)
	}
	return urls, nil
}

func stripComment(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		return ""
	}
	if i := strings.IndexByte(line, '#'); i != -1 {
		return line[:i]
	}
	return line
}
