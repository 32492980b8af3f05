// Package directory resolves the users that entitlements attach to. User
// accounts are managed elsewhere; this service only needs existence and
// email lookups.
package directory

import (
	"context"
	"strings"
	"sync"

	id "entgate/pkg/domain"
	derrors "entgate/pkg/domain-errors"
	"entgate/pkg/platform/sentinel"
)

// InMemoryDirectory is the development and test directory. Production wires
// PostgresDirectory against the shared users table.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	byID    map[id.UserID]string
	byEmail map[string]id.UserID
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		byID:    make(map[id.UserID]string),
		byEmail: make(map[string]id.UserID),
	}
}

// Add registers a user. Emails are unique; re-adding an email repoints it.
func (d *InMemoryDirectory) Add(userID id.UserID, email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[userID] = email
	if email != "" {
		d.byEmail[email] = userID
	}
}

func (d *InMemoryDirectory) Exists(ctx context.Context, userID id.UserID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[userID]
	return ok, nil
}

func (d *InMemoryDirectory) FindByEmail(ctx context.Context, email string) (id.UserID, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	d.mu.RLock()
	defer d.mu.RUnlock()
	userID, ok := d.byEmail[email]
	if !ok {
		return id.UserID{}, derrors.Wrap(sentinel.ErrNotFound, derrors.CodeNotFound, "user not found")
	}
	return userID, nil
}
