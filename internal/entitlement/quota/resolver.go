// Package quota resolves a user's effective quota tier from their
// entitlement history.
package quota

import (
	"context"
	"log/slog"

	"entgate/internal/catalog"
	"entgate/internal/entitlement/models"
	id "entgate/pkg/domain"
)

// Store is the slice of the entitlement store the resolver reads from.
type Store interface {
	ListByUser(ctx context.Context, userID id.UserID, kinds ...catalog.Kind) ([]models.EntitlementRecord, error)
}

// Resolution is the outcome of a quota lookup. Defaulted reports that no
// active quota grant existed (or the store was unreachable) and the catalog
// default was substituted.
type Resolution struct {
	Feature   catalog.FeatureName
	Version   int
	Config    catalog.QuotaConfig
	Defaulted bool
}

// Resolver computes the effective quota for a user. Resolution never fails:
// any store or decode problem degrades to the catalog's default quota so
// read paths stay available.
type Resolver struct {
	store   Store
	catalog *catalog.Catalog
	log     *slog.Logger
}

func New(store Store, cat *catalog.Catalog, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, catalog: cat, log: log}
}

// Resolve returns the user's effective quota. Among active quota grants the
// most recently granted wins; grants sharing a timestamp tie-break on
// catalog declaration order, earlier declarations winning. With no active
// quota grant the catalog default applies.
func (r *Resolver) Resolve(ctx context.Context, userID id.UserID) Resolution {
	records, err := r.store.ListByUser(ctx, userID, catalog.KindQuota)
	if err != nil {
		r.log.WarnContext(ctx, "quota store unavailable, serving default quota",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return r.defaultResolution()
	}

	var winner *models.EntitlementRecord
	for i := range records {
		rec := &records[i]
		if !rec.IsActive() {
			continue
		}
		if winner == nil || rec.GrantedAt.After(winner.GrantedAt) {
			winner = rec
			continue
		}
		if rec.GrantedAt.Equal(winner.GrantedAt) &&
			r.catalog.Rank(rec.Feature) < r.catalog.Rank(winner.Feature) {
			winner = rec
		}
	}
	if winner == nil {
		return r.defaultResolution()
	}

	cfg, err := r.catalog.Validate(catalog.KindQuota, winner.Feature, winner.Version, winner.Config)
	if err != nil {
		// A stored config that no longer decodes is a data problem, not a
		// caller problem. Serve the default rather than surface it.
		r.log.ErrorContext(ctx, "stored quota config failed validation, serving default quota",
			slog.String("user_id", userID.String()),
			slog.String("feature", string(winner.Feature)),
			slog.Int("version", winner.Version),
			slog.String("error", err.Error()))
		return r.defaultResolution()
	}
	quotaCfg, ok := cfg.(catalog.QuotaConfig)
	if !ok {
		return r.defaultResolution()
	}

	return Resolution{
		Feature: winner.Feature,
		Version: winner.Version,
		Config:  quotaCfg,
	}
}

func (r *Resolver) defaultResolution() Resolution {
	def := r.catalog.DefaultQuota()
	return Resolution{
		Feature:   def.Name,
		Version:   def.Version,
		Config:    def.DefaultConfig.(catalog.QuotaConfig),
		Defaulted: true,
	}
}
