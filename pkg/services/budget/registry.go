package budget

import (
	"errors"
	"fmt"
	"maps"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
)

var (
	ErrIncompleteBudget = errors.New("budget table does not cover every category")
	ErrUnknownCategory  = errors.New("unknown budget category")
)

// Default monthly ceilings in USD.
var defaultCeilings = map[domain.Category]float64{
	domain.CategoryInfrastructure:  15000,
	domain.CategoryAITokens:        4000,
	domain.CategoryHostingDevOps:   3000,
	domain.CategoryThirdPartyTools: 5000,
}

// Registry maps every category to its monthly ceiling. It is immutable once built.
type Registry struct {
	ceilings map[domain.Category]float64
	total    float64
}

// Default returns the registry with the built-in ceilings.
func Default() *Registry {
	r, err := NewRegistry(defaultCeilings)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistry validates that ceilings covers exactly the closed category set
// with non-negative values.
func NewRegistry(ceilings map[domain.Category]float64) (*Registry, error) {
	for c, v := range ceilings {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative ceiling for %q: %v", c, v)
		}
	}

	r := &Registry{ceilings: make(map[domain.Category]float64, len(ceilings))}
	for _, c := range domain.Categories() {
		v, ok := ceilings[c]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrIncompleteBudget, c)
		}
		r.ceilings[c] = v
		r.total += v
	}
	return r, nil
}

// WithOverrides returns a registry where the given categories replace the
// current ceilings. Names are matched case-insensitively since config keys
// arrive lowercased.
func (r *Registry) WithOverrides(overrides map[string]float64) (*Registry, error) {
	merged := maps.Clone(r.ceilings)
	for name, v := range overrides {
		c, ok := domain.ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		merged[c] = v
	}
	return NewRegistry(merged)
}

// Ceiling returns the monthly ceiling for c. ok is false only for categories
// outside the closed set.
func (r *Registry) Ceiling(c domain.Category) (float64, bool) {
	v, ok := r.ceilings[c]
	return v, ok
}

// Ceilings returns the ceilings in category display order.
func (r *Registry) Ceilings() []domain.CategoryTotal {
	out := make([]domain.CategoryTotal, 0, len(r.ceilings))
	for _, c := range domain.Categories() {
		out = append(out, domain.CategoryTotal{Category: c, AmountUSD: r.ceilings[c]})
	}
	return out
}

// Total is the sum of all ceilings.
func (r *Registry) Total() float64 {
	return r.total
}
