package plan

import "sort"

// Diff describes what a tenant gains and loses by moving between two
// plans. Limit maps hold the target plan's value for every limit whose
// effective ceiling changes; Unlimited counts as higher than any
// finite value.
type Diff struct {
	FeaturesGained []Feature       `json:"features_gained,omitempty"`
	FeaturesLost   []Feature       `json:"features_lost,omitempty"`
	LimitsRaised   map[Limit]int64 `json:"limits_raised,omitempty"`
	LimitsLowered  map[Limit]int64 `json:"limits_lowered,omitempty"`
}

// ComparePlans diffs features and limits between two plans. Limits
// absent from a plan are compared at zero, matching LimitFor.
func ComparePlans(from, to Plan) Diff {
	d := Diff{
		LimitsRaised:  make(map[Limit]int64),
		LimitsLowered: make(map[Limit]int64),
	}

	for f, enabled := range to.Features {
		if enabled && !from.HasFeature(f) {
			d.FeaturesGained = append(d.FeaturesGained, f)
		}
	}
	for f, enabled := range from.Features {
		if enabled && !to.HasFeature(f) {
			d.FeaturesLost = append(d.FeaturesLost, f)
		}
	}
	sort.Slice(d.FeaturesGained, func(i, j int) bool { return d.FeaturesGained[i] < d.FeaturesGained[j] })
	sort.Slice(d.FeaturesLost, func(i, j int) bool { return d.FeaturesLost[i] < d.FeaturesLost[j] })

	for l := range mergedLimitKeys(from, to) {
		fromV, toV := from.LimitFor(l), to.LimitFor(l)
		switch {
		case fromV == toV:
		case limitGreater(toV, fromV):
			d.LimitsRaised[l] = toV
		default:
			d.LimitsLowered[l] = toV
		}
	}
	return d
}

func mergedLimitKeys(from, to Plan) map[Limit]struct{} {
	keys := make(map[Limit]struct{}, len(from.Limits)+len(to.Limits))
	for l := range from.Limits {
		keys[l] = struct{}{}
	}
	for l := range to.Limits {
		keys[l] = struct{}{}
	}
	return keys
}

// limitGreater orders limit values with Unlimited above everything.
func limitGreater(a, b int64) bool {
	if a == Unlimited {
		return b != Unlimited
	}
	if b == Unlimited {
		return false
	}
	return a > b
}
