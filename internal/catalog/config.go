package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	derrors "entgate/pkg/domain-errors"
)

// Config is the closed set of per-feature configuration shapes. Each feature
// name owns exactly one shape; adding a feature means adding one Config type
// and one configSpecs entry, never touching existing cases.
type Config interface {
	// check validates shape invariants after a structurally successful
	// decode.
	check() error
	isConfig()
}

// EarlyAccessConfig configures the early-access allow list.
type EarlyAccessConfig struct {
	// Whitelist holds domain suffixes ("@toeverything.info") or exact
	// addresses, matched case-insensitively.
	Whitelist []string `json:"whitelist"`
}

func (EarlyAccessConfig) isConfig() {}

func (c EarlyAccessConfig) check() error {
	for _, entry := range c.Whitelist {
		if entry == "" {
			return derrors.New(derrors.CodeValidation, "whitelist entries must be non-empty")
		}
	}
	return nil
}

// CopilotConfig carries no settings; the grant itself is the capability.
type CopilotConfig struct{}

func (CopilotConfig) isConfig()    {}
func (CopilotConfig) check() error { return nil }

// QuotaConfig describes the resource limits of a quota tier.
type QuotaConfig struct {
	Name              string `json:"name"`
	BlobLimit         int64  `json:"blob_limit"`
	StorageQuota      int64  `json:"storage_quota"`
	HistoryPeriodDays int    `json:"history_period_days"`
	MemberLimit       int    `json:"member_limit"`
}

func (QuotaConfig) isConfig() {}

func (c QuotaConfig) check() error {
	if c.Name == "" {
		return derrors.New(derrors.CodeValidation, "quota name is required")
	}
	if c.BlobLimit <= 0 || c.StorageQuota <= 0 {
		return derrors.New(derrors.CodeValidation, "quota limits must be positive")
	}
	if c.HistoryPeriodDays < 0 || c.MemberLimit < 1 {
		return derrors.New(derrors.CodeValidation, "quota periods and member limit out of range")
	}
	return nil
}

// configSpec binds a feature name to its kind and decoder. The map below is
// the discriminated union: dispatch happens here and nowhere else.
type configSpec struct {
	kind   Kind
	decode func(raw json.RawMessage) (Config, error)
}

var configSpecs = map[FeatureName]configSpec{
	FeatureEarlyAccess: {kind: KindFeature, decode: decodeInto[EarlyAccessConfig]},
	FeatureCopilot:     {kind: KindFeature, decode: decodeInto[CopilotConfig]},
	FeatureFreePlan:    {kind: KindQuota, decode: decodeInto[QuotaConfig]},
	FeatureProPlan:     {kind: KindQuota, decode: decodeInto[QuotaConfig]},
}

// decodeInto strictly decodes raw JSON into the shape T. Unknown fields and
// trailing data are rejected; an empty payload decodes as the zero shape.
func decodeInto[T Config](raw json.RawMessage) (Config, error) {
	var cfg T
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeValidation, "config does not match feature shape")
	}
	if dec.More() {
		return nil, derrors.New(derrors.CodeValidation, "config has trailing data")
	}
	return cfg, nil
}

// Validate checks a candidate feature record's configuration against the
// catalog schema for its declared kind and version. It returns the decoded,
// checked config or a coded error. A nil raw config falls back to the
// definition's default.
func (c *Catalog) Validate(kind Kind, name FeatureName, version int, raw json.RawMessage) (Config, error) {
	def, err := c.Definition(name, version)
	if err != nil {
		return nil, err
	}
	if def.Kind != kind {
		return nil, derrors.New(derrors.CodeValidation,
			fmt.Sprintf("feature %q is %s-kind, not %s-kind", name, def.Kind, kind))
	}
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return def.DefaultConfig, nil
	}
	spec := configSpecs[name] // existence guaranteed by catalog construction
	cfg, err := spec.decode(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}
