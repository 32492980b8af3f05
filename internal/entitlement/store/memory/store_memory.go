// Package memory provides an in-memory entitlement store. It mirrors the
// Postgres store's semantics so either can back the service; tests and
// single-node demos run on this one.
package memory

import (
	"context"
	"sync"

	"entgate/internal/catalog"
	"entgate/internal/entitlement/models"
	id "entgate/pkg/domain"
	"entgate/pkg/requestcontext"
)

type InMemory struct {
	mu      sync.RWMutex
	records map[id.UserID][]models.EntitlementRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.UserID][]models.EntitlementRecord)}
}

// Insert appends a record. Append-only: concurrent inserts for the same
// (user, feature) both land; nothing is overwritten.
func (s *InMemory) Insert(ctx context.Context, record *models.EntitlementRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = append(s.records[record.UserID], *record)
	return nil
}

// ListByUser returns copies of the user's records, optionally filtered by
// kind. Tombstoned records are included; callers filter on IsActive.
func (s *InMemory) ListByUser(ctx context.Context, userID id.UserID, kinds ...catalog.Kind) ([]models.EntitlementRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.EntitlementRecord
	for _, rec := range s.records[userID] {
		if len(kinds) > 0 && !kindMatches(rec.Kind, kinds) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteActive tombstones every active record for (user, feature). Returns
// false when no active grant existed; that is not an error.
func (s *InMemory) DeleteActive(ctx context.Context, userID id.UserID, feature catalog.FeatureName) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	revoked := false
	recs := s.records[userID]
	for i := range recs {
		if recs[i].Feature == feature && recs[i].IsActive() {
			ts := now
			recs[i].RevokedAt = &ts
			revoked = true
		}
	}
	return revoked, nil
}

// ListEarlyAccessUsers returns the IDs of users holding an active
// early-access grant.
func (s *InMemory) ListEarlyAccessUsers(ctx context.Context) ([]id.UserID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []id.UserID
	for userID, recs := range s.records {
		for i := range recs {
			if recs[i].Feature == catalog.FeatureEarlyAccess && recs[i].IsActive() {
				out = append(out, userID)
				break
			}
		}
	}
	return out, nil
}

func kindMatches(k catalog.Kind, kinds []catalog.Kind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
