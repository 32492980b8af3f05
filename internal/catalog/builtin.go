package catalog

const (
	mebibyte = int64(1) << 20
	gibibyte = int64(1) << 30
)

// builtinDefs is the fixed declaration list compiled into the catalog at
// process start. Declaration order doubles as the tie-break order for quota
// resolution, so quota tiers are listed from least to most generous.
var builtinDefs = []FeatureDefinition{
	{
		Name:    FeatureFreePlan,
		Kind:    KindQuota,
		Version: 1,
		DefaultConfig: QuotaConfig{
			Name:              "Free",
			BlobLimit:         10 * mebibyte,
			StorageQuota:      10 * gibibyte,
			HistoryPeriodDays: 7,
			MemberLimit:       3,
		},
	},
	{
		Name:    FeatureFreePlan,
		Kind:    KindQuota,
		Version: 2,
		DefaultConfig: QuotaConfig{
			Name:              "Free",
			BlobLimit:         100 * mebibyte,
			StorageQuota:      10 * gibibyte,
			HistoryPeriodDays: 30,
			MemberLimit:       10,
		},
	},
	{
		Name:    FeatureProPlan,
		Kind:    KindQuota,
		Version: 1,
		DefaultConfig: QuotaConfig{
			Name:              "Pro",
			BlobLimit:         100 * mebibyte,
			StorageQuota:      100 * gibibyte,
			HistoryPeriodDays: 30,
			MemberLimit:       10,
		},
	},
	{
		Name:    FeatureEarlyAccess,
		Kind:    KindFeature,
		Version: 1,
		DefaultConfig: EarlyAccessConfig{
			Whitelist: []string{"@toeverything.info"},
		},
	},
	{
		Name:          FeatureCopilot,
		Kind:          KindFeature,
		Version:       1,
		DefaultConfig: CopilotConfig{},
	},
}

// Builtin returns the standard catalog. The latest free plan is the quota
// every user falls back to when no explicit grant exists.
func Builtin() (*Catalog, error) {
	return New(builtinDefs, FeatureFreePlan)
}
