// Package earlyaccess decides whether an email address is covered by the
// early-access allow list.
package earlyaccess

import "strings"

// Gate matches emails against a whitelist of entries. An entry beginning
// with "@" matches any address in that domain by suffix; any other entry
// matches one exact address. All matching is case-insensitive.
type Gate struct {
	entries []string
}

// NewGate normalizes the whitelist once so each match is a plain suffix or
// equality check.
func NewGate(whitelist []string) *Gate {
	entries := make([]string, 0, len(whitelist))
	for _, entry := range whitelist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return &Gate{entries: entries}
}

// Matches reports whether email is covered by the whitelist. An empty
// whitelist matches nothing.
func (g *Gate) Matches(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, entry := range g.entries {
		if strings.HasPrefix(entry, "@") {
			if strings.HasSuffix(email, entry) {
				return true
			}
			continue
		}
		if email == entry {
			return true
		}
	}
	return false
}
