// Package plan holds the static tier-to-feature/limit table. The table is
// loaded once at startup and is immutable for the process lifetime; changing
// it means redeploying, never mutating at runtime.
package plan

import (
	"errors"
	"fmt"
	"strings"
)

const (
	TierFree       = "free"
	TierStarter    = "starter"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// Limit is a numeric ceiling for one limit key. Unlimited is an explicit
// marker rather than a sentinel value.
type Limit struct {
	Value     int64
	Unlimited bool
}

// Allows reports whether one more unit fits under the limit.
func (l Limit) Allows(currentCount int64) bool {
	if l.Unlimited {
		return true
	}
	return currentCount < l.Value
}

// TierSpec is one row of the plan table.
type TierSpec struct {
	Name     string
	Features []string
	Limits   map[string]Limit

	features map[string]struct{}
}

// HasFeature reports whether the tier row includes the feature key.
func (t TierSpec) HasFeature(featureKey string) bool {
	_, ok := t.features[featureKey]
	return ok
}

// AppSpec describes gating for one application of the product family.
type AppSpec struct {
	MinimumFeature string
	SeatGated      bool
}

// Table is the resolved, validated plan configuration. Tier order is the
// declared upgrade path, cheapest first.
type Table struct {
	order  []string
	tiers  map[string]TierSpec
	apps   map[string]AppSpec
	topped string
}

var (
	ErrEmptyOrder     = errors.New("plan table declares no tiers")
	ErrUnknownTier    = errors.New("tier not declared in order")
	ErrMissingFreeRow = errors.New("plan table has no free tier row")
)

func newTable(order []string, tiers map[string]TierSpec, apps map[string]AppSpec) (*Table, error) {
	if len(order) == 0 {
		return nil, ErrEmptyOrder
	}
	for name := range tiers {
		found := false
		for _, o := range order {
			if o == name {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTier, name)
		}
	}
	if _, ok := tiers[TierFree]; !ok {
		return nil, ErrMissingFreeRow
	}
	for name, spec := range tiers {
		spec.Name = name
		spec.features = make(map[string]struct{}, len(spec.Features))
		for _, f := range spec.Features {
			spec.features[f] = struct{}{}
		}
		tiers[name] = spec
	}
	return &Table{
		order:  order,
		tiers:  tiers,
		apps:   apps,
		topped: order[len(order)-1],
	}, nil
}

// Order returns the declared tier order, cheapest first.
func (t *Table) Order() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Tier returns the row for the named tier.
func (t *Table) Tier(name string) (TierSpec, bool) {
	spec, ok := t.tiers[strings.ToLower(strings.TrimSpace(name))]
	return spec, ok
}

// Normalize maps a provider-supplied tier name onto the table, falling back
// to free for anything missing or unrecognized (least privilege).
func (t *Table) Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := t.tiers[name]; ok {
		return name
	}
	return TierFree
}

// HasFeature reports whether the named tier includes the feature key.
func (t *Table) HasFeature(tier, featureKey string) bool {
	spec, ok := t.Tier(tier)
	if !ok {
		return false
	}
	return spec.HasFeature(featureKey)
}

// CheapestTierWith returns the first tier in declared order that includes
// the feature, or "" when no tier does (a configuration error).
func (t *Table) CheapestTierWith(featureKey string) (string, bool) {
	for _, name := range t.order {
		spec, ok := t.tiers[name]
		if !ok {
			continue
		}
		if spec.HasFeature(featureKey) {
			return name, true
		}
	}
	return "", false
}

// Limits returns a copy of the tier's limit row.
func (t *Table) Limits(tier string) map[string]Limit {
	spec, ok := t.Tier(tier)
	if !ok {
		return nil
	}
	out := make(map[string]Limit, len(spec.Limits))
	for k, v := range spec.Limits {
		out[k] = v
	}
	return out
}

// Limit returns one limit for the tier.
func (t *Table) Limit(tier, limitKey string) (Limit, bool) {
	spec, ok := t.Tier(tier)
	if !ok {
		return Limit{}, false
	}
	l, ok := spec.Limits[limitKey]
	return l, ok
}

// AdminTier returns the top tier name used for the admin bypass.
func (t *Table) AdminTier() string {
	return t.topped
}

// AdminLimits returns the admin limit row: every known limit key, unlimited.
// Modeling the bypass as a universal entitlement keeps all checks uniform.
func (t *Table) AdminLimits() map[string]Limit {
	keys := make(map[string]struct{})
	for _, spec := range t.tiers {
		for k := range spec.Limits {
			keys[k] = struct{}{}
		}
	}
	out := make(map[string]Limit, len(keys))
	for k := range keys {
		out[k] = Limit{Unlimited: true}
	}
	return out
}

// App returns the gating spec for an application identifier.
func (t *Table) App(appID string) (AppSpec, bool) {
	spec, ok := t.apps[strings.ToLower(strings.TrimSpace(appID))]
	return spec, ok
}
