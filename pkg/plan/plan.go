package plan

import "time"

// Plan describes a subscription plan and its resource/feature constraints.
// The Slug is the stable identifier referenced by subscriptions; administrative
// updates that change limits or prices keep the slug, so a slug implicitly
// versions the plan it names.
type Plan struct {
	Slug         string             `yaml:"slug" json:"slug"`
	Name         string             `yaml:"name" json:"name"`
	Description  string             `yaml:"description" json:"description,omitempty"`
	MonthlyPrice Money              `yaml:"monthly_price" json:"monthly_price"`
	YearlyPrice  Money              `yaml:"yearly_price" json:"yearly_price"`
	Features     map[Feature]bool   `yaml:"features" json:"features"`
	Limits       map[Limit]int64    `yaml:"limits" json:"limits"` // -1 represents unlimited
	TrialDays    int                `yaml:"trial_days" json:"trial_days"`
	Public       bool               `yaml:"public" json:"public"` // available for self-service signup
}

// Price returns the plan price for the given billing cycle.
// Free plans return a zero Money for any cycle.
func (p Plan) Price(cycle BillingCycle) Money {
	switch cycle {
	case CycleYearly:
		return p.YearlyPrice
	default:
		return p.MonthlyPrice
	}
}

// IsFree reports whether the plan carries no charge on any cycle.
func (p Plan) IsFree() bool {
	return p.MonthlyPrice.IsZero() && p.YearlyPrice.IsZero()
}

// HasFeature reports whether the feature is enabled on the plan.
func (p Plan) HasFeature(f Feature) bool {
	return p.Features[f]
}

// LimitFor returns the plan's ceiling for the given limit.
// Limits absent from the plan are treated as zero (nothing allowed),
// so misconfigured plans fail closed.
func (p Plan) LimitFor(l Limit) int64 {
	v, ok := p.Limits[l]
	if !ok {
		return 0
	}
	return v
}

// TrialEndsAt calculates when the trial period ends.
// Returns startedAt unchanged if no trial is available.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}
