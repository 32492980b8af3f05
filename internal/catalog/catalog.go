// Package catalog holds the process-wide registry of recognized feature
// definitions and the validation of per-feature configuration shapes.
//
// The catalog is built once at startup and never mutated afterwards, so it
// is safe for unsynchronized concurrent reads. New schema versions are added
// as new entries; existing entries are never edited in place.
package catalog

import (
	"fmt"

	derrors "entgate/pkg/domain-errors"
)

// Kind discriminates toggle features from quota tiers.
type Kind string

const (
	// KindFeature is a boolean capability (copilot, early access).
	KindFeature Kind = "feature"
	// KindQuota is a tiered capability; exactly one is active per user.
	KindQuota Kind = "quota"
)

func (k Kind) IsValid() bool {
	return k == KindFeature || k == KindQuota
}

// FeatureName identifies a feature across all its schema versions.
type FeatureName string

const (
	FeatureEarlyAccess FeatureName = "early_access"
	FeatureCopilot     FeatureName = "copilot"
	FeatureFreePlan    FeatureName = "free_plan"
	FeatureProPlan     FeatureName = "pro_plan"
)

// FeatureDefinition describes one (name, version) entry. Immutable after
// catalog construction.
type FeatureDefinition struct {
	Name          FeatureName
	Kind          Kind
	Version       int
	DefaultConfig Config
}

type defKey struct {
	name    FeatureName
	version int
}

// Catalog is the read-only feature registry.
type Catalog struct {
	byKey        map[defKey]FeatureDefinition
	latest       map[FeatureName]FeatureDefinition
	order        []FeatureDefinition
	rank         map[FeatureName]int
	defaultQuota FeatureName
}

// New builds a catalog from the given definitions. It fails fast on
// duplicate (name, version) pairs, kind drift between versions of the same
// name, default configs that do not validate against their own shape, and a
// default quota that is not a quota-kind entry. Callers abort startup on
// error.
func New(defs []FeatureDefinition, defaultQuota FeatureName) (*Catalog, error) {
	c := &Catalog{
		byKey:        make(map[defKey]FeatureDefinition, len(defs)),
		latest:       make(map[FeatureName]FeatureDefinition, len(defs)),
		rank:         make(map[FeatureName]int, len(defs)),
		defaultQuota: defaultQuota,
	}
	for _, def := range defs {
		if !def.Kind.IsValid() {
			return nil, fmt.Errorf("catalog: %s v%d: unknown kind %q", def.Name, def.Version, def.Kind)
		}
		if def.Version < 1 {
			return nil, fmt.Errorf("catalog: %s: version must be >= 1, got %d", def.Name, def.Version)
		}
		key := defKey{name: def.Name, version: def.Version}
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate definition %s v%d", def.Name, def.Version)
		}
		if prev, ok := c.latest[def.Name]; ok && prev.Kind != def.Kind {
			return nil, fmt.Errorf("catalog: %s: kind changed between versions", def.Name)
		}
		spec, ok := configSpecs[def.Name]
		if !ok {
			return nil, fmt.Errorf("catalog: %s: no config shape registered", def.Name)
		}
		if spec.kind != def.Kind {
			return nil, fmt.Errorf("catalog: %s: declared kind %s does not match config shape kind %s", def.Name, def.Kind, spec.kind)
		}
		if def.DefaultConfig == nil {
			return nil, fmt.Errorf("catalog: %s v%d: default config is required", def.Name, def.Version)
		}
		if err := def.DefaultConfig.check(); err != nil {
			return nil, fmt.Errorf("catalog: %s v%d: default config invalid: %w", def.Name, def.Version, err)
		}

		c.byKey[key] = def
		if prev, ok := c.latest[def.Name]; !ok || def.Version > prev.Version {
			c.latest[def.Name] = def
		}
		if _, seen := c.rank[def.Name]; !seen {
			c.rank[def.Name] = len(c.rank)
		}
		c.order = append(c.order, def)
	}

	dq, ok := c.latest[defaultQuota]
	if !ok {
		return nil, fmt.Errorf("catalog: default quota %s is not defined", defaultQuota)
	}
	if dq.Kind != KindQuota {
		return nil, fmt.Errorf("catalog: default quota %s is not quota-kind", defaultQuota)
	}
	return c, nil
}

// DefinitionFor returns the latest version of the named feature.
func (c *Catalog) DefinitionFor(name FeatureName) (FeatureDefinition, error) {
	def, ok := c.latest[name]
	if !ok {
		return FeatureDefinition{}, derrors.New(derrors.CodeNotFound, fmt.Sprintf("unknown feature %q", name))
	}
	return def, nil
}

// Definition returns the exact (name, version) entry.
func (c *Catalog) Definition(name FeatureName, version int) (FeatureDefinition, error) {
	def, ok := c.byKey[defKey{name: name, version: version}]
	if !ok {
		if _, known := c.latest[name]; known {
			return FeatureDefinition{}, derrors.New(derrors.CodeValidation,
				fmt.Sprintf("feature %q has no schema version %d", name, version))
		}
		return FeatureDefinition{}, derrors.New(derrors.CodeNotFound, fmt.Sprintf("unknown feature %q", name))
	}
	return def, nil
}

// All returns every definition in declaration order.
func (c *Catalog) All() []FeatureDefinition {
	out := make([]FeatureDefinition, len(c.order))
	copy(out, c.order)
	return out
}

// DefaultQuota returns the designated fallback quota definition. Resolution
// must always produce a usable quota fact, so this never fails.
func (c *Catalog) DefaultQuota() FeatureDefinition {
	return c.latest[c.defaultQuota]
}

// Rank returns the declaration position of a feature name, used as a
// deterministic tie-break when records share a grant timestamp. Unknown
// names sort last.
func (c *Catalog) Rank(name FeatureName) int {
	if r, ok := c.rank[name]; ok {
		return r
	}
	return len(c.rank)
}
