package usage

import (
	"fmt"
	"time"

	"github.com/hirelens/billingkit/pkg/plan"
)

// Period key layouts per granularity.
const (
	hourlyLayout  = "2006-01-02T15"
	dailyLayout   = "2006-01-02"
	monthlyLayout = "2006-01"
)

// Period identifies one aggregation window for a tenant's usage counters.
// The key is a UTC-formatted prefix of the timestamp, so lexicographic order
// matches chronological order within a granularity.
type Period struct {
	Granularity plan.Granularity
	Key         string
}

// PeriodFor returns the period containing t at the given granularity.
func PeriodFor(g plan.Granularity, t time.Time) Period {
	t = t.UTC()
	switch g {
	case plan.GranularityHourly:
		return Period{Granularity: g, Key: t.Format(hourlyLayout)}
	case plan.GranularityDaily:
		return Period{Granularity: g, Key: t.Format(dailyLayout)}
	default:
		return Period{Granularity: plan.GranularityMonthly, Key: t.Format(monthlyLayout)}
	}
}

// Bounds returns the half-open [start, end) time range the period covers.
func (p Period) Bounds() (start, end time.Time, err error) {
	switch p.Granularity {
	case plan.GranularityHourly:
		start, err = time.Parse(hourlyLayout, p.Key)
		if err == nil {
			end = start.Add(time.Hour)
		}
	case plan.GranularityDaily:
		start, err = time.Parse(dailyLayout, p.Key)
		if err == nil {
			end = start.AddDate(0, 0, 1)
		}
	case plan.GranularityMonthly:
		start, err = time.Parse(monthlyLayout, p.Key)
		if err == nil {
			end = start.AddDate(0, 1, 0)
		}
	default:
		err = fmt.Errorf("%w: %s", ErrInvalidPeriod, p.Granularity)
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, p.Key)
	}
	return start.UTC(), end.UTC(), nil
}

// String implements fmt.Stringer for log output.
func (p Period) String() string {
	return string(p.Granularity) + ":" + p.Key
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	start, end, err := p.Bounds()
	if err != nil {
		return false
	}
	t = t.UTC()
	return !t.Before(start) && t.Before(end)
}
