package plan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Catalog is the read-only registry of plans every other component consults.
// Plans are loaded once at construction; the catalog is safe for concurrent
// reads because the underlying map is never mutated afterwards.
type Catalog struct {
	plans    map[string]Plan
	freeSlug string
}

// NewCatalog loads plans from src and validates the configuration.
// Exactly one free, public plan must exist: it is the fallback tier for
// tenants without a valid subscription.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		panic("plan: Source is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	freeSlug := ""
	for slug, p := range plans {
		if p.Slug != slug {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan slug mismatch: map key %s != plan.Slug %s", slug, p.Slug))
		}
		if p.TrialDays < 0 {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative trial days: %d", slug, p.TrialDays))
		}
		for l, v := range p.Limits {
			if v < Unlimited {
				return nil, errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s limit %s has invalid value %d", slug, l, v))
			}
		}
		if p.IsFree() && p.Public && freeSlug == "" {
			freeSlug = slug
		}
	}

	if freeSlug == "" {
		return nil, ErrNoFreePlan
	}

	return &Catalog{plans: plans, freeSlug: freeSlug}, nil
}

// Get returns the plan with the given slug.
func (c *Catalog) Get(slug string) (Plan, error) {
	p, exists := c.plans[slug]
	if !exists {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, slug)
	}
	return p, nil
}

// Free returns the designated free-tier plan used as the fallback for
// tenants without an active subscription.
func (c *Catalog) Free() Plan {
	return c.plans[c.freeSlug]
}

// List returns all public plans sorted by monthly price, then slug.
// Non-public plans (grandfathered, custom enterprise) are omitted.
func (c *Catalog) List() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		if p.Public {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Plan) int {
		if a.MonthlyPrice.Amount != b.MonthlyPrice.Amount {
			return int(a.MonthlyPrice.Amount - b.MonthlyPrice.Amount)
		}
		return strings.Compare(a.Slug, b.Slug)
	})
	return out
}

// Has reports whether a plan with the given slug exists.
func (c *Catalog) Has(slug string) bool {
	_, exists := c.plans[slug]
	return exists
}
