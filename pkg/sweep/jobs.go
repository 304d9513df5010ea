package sweep

import (
	"context"
	"time"

	"github.com/hirelens/billingkit/pkg/billing"
	"github.com/hirelens/billingkit/pkg/subscription"
	"github.com/hirelens/billingkit/pkg/tenant"
	"github.com/hirelens/billingkit/pkg/usage"
)

// TrialExpiryJob moves subscriptions whose trial lapsed without payment
// to past_due.
func TrialExpiryJob(svc *subscription.Service, schedule string) Job {
	return Job{
		Name:     "trial-expiry",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			_, err := svc.ExpireTrials(ctx, tenant.MustScopeFromContext(ctx))
			return err
		},
	}
}

// RetentionJob prunes raw usage events older than the retention window.
// Summaries are kept; they are the billing record.
func RetentionJob(ledger *usage.Ledger, retentionDays int, schedule string) Job {
	horizon := time.Duration(retentionDays) * 24 * time.Hour
	if retentionDays <= 0 {
		horizon = usage.DefaultRetention
	}
	return Job{
		Name:     "usage-retention",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			_, err := ledger.SweepRetention(ctx, tenant.MustScopeFromContext(ctx), horizon)
			return err
		},
	}
}

// BillingRetryJob reprocesses failed billing events whose backoff has
// elapsed.
func BillingRetryJob(proc *billing.Processor, schedule string) Job {
	return Job{
		Name:     "billing-retry",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			_, err := proc.RetryFailed(ctx, tenant.MustScopeFromContext(ctx))
			return err
		},
	}
}
