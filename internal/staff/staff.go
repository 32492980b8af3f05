// Package staff decides which callers may use administrative operations.
package staff

import (
	"context"
	"strings"

	"entgate/internal/platform/config"
)

// Checker authorizes staff by exact email or whole domain, matched
// case-insensitively. Membership comes from configuration, so revoking
// staff access is a deploy, not a data migration.
type Checker struct {
	emails  map[string]struct{}
	domains []string
}

func NewChecker(cfg config.Staff) *Checker {
	c := &Checker{emails: make(map[string]struct{}, len(cfg.Emails))}
	for _, email := range cfg.Emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			c.emails[email] = struct{}{}
		}
	}
	for _, domain := range cfg.Domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if !strings.HasPrefix(domain, "@") {
			domain = "@" + domain
		}
		c.domains = append(c.domains, domain)
	}
	return c
}

// IsStaff reports whether email belongs to staff. It never fails; the
// error return satisfies the service's checker contract, which allows
// directory-backed implementations.
func (c *Checker) IsStaff(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	if _, ok := c.emails[email]; ok {
		return true, nil
	}
	for _, domain := range c.domains {
		if strings.HasSuffix(email, domain) {
			return true, nil
		}
	}
	return false, nil
}
