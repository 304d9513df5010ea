package plan

// Limit identifies a numeric ceiling drawn from a plan.
type Limit string

const (
	LimitUploads      Limit = "uploads"       // resume uploads per month
	LimitAnalyses     Limit = "analyses"      // AI analyses per month
	LimitStorageBytes Limit = "storage_bytes" // stored bytes, monthly high-water
	LimitAPICalls     Limit = "api_calls"     // API calls per hour
)

const (
	// Unlimited indicates no limit for a resource (-1 chosen for SQL compatibility)
	Unlimited int64 = -1
)

// Granularity is the aggregation window a limit is measured over.
type Granularity string

const (
	GranularityHourly  Granularity = "hourly"
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// Granularity returns the window the limit is enforced over.
// Unknown limits default to monthly, the coarsest window.
func (l Limit) Granularity() Granularity {
	switch l {
	case LimitAPICalls:
		return GranularityHourly
	default:
		return GranularityMonthly
	}
}

// Feature represents a plan-specific capability that can be enabled/disabled.
type Feature string

const (
	FeatureAIScoring       Feature = "ai_scoring"
	FeatureBulkUpload      Feature = "bulk_upload"
	FeatureAPI             Feature = "api"
	FeatureExport          Feature = "export"
	FeaturePrioritySupport Feature = "priority_support"
	FeatureTeamSeats       Feature = "team_seats"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $10.99 USD would be Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount" json:"amount"`
	Currency string `yaml:"currency" json:"currency"`
}

// IsZero reports whether the amount is zero (free).
func (m Money) IsZero() bool { return m.Amount == 0 }

// BillingCycle represents the billing frequency for a subscription plan.
type BillingCycle string

const (
	CycleNone    BillingCycle = "none" // free plans with no billing
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// Days returns the nominal cycle length in days used for proration.
func (c BillingCycle) Days() int {
	switch c {
	case CycleYearly:
		return 365
	default:
		return 30
	}
}
