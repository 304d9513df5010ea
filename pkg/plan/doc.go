// Package plan provides the plan catalog: the registry of subscription plans
// with their prices, feature flags, and numeric usage limits.
//
// The catalog is a leaf dependency consulted by quota enforcement, the
// subscription lifecycle, and proration. Plans are identified by a stable
// slug; administrative updates keep the slug, so a slug implicitly versions
// the plan it names.
//
// # Usage
//
//	src := plan.NewYAMLSource("plans.yaml")
//	catalog, err := plan.NewCatalog(ctx, src)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pro, err := catalog.Get("pro")
//	limit := pro.LimitFor(plan.LimitUploads) // -1 means unlimited
//
// # Limits
//
// Each limit carries a granularity: uploads and analyses are counted per
// month, api_calls per hour. plan.Unlimited (-1) disables enforcement for a
// limit entirely.
package plan
