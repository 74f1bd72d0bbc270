package plan

// Built-in plan table for the FinTuttO apps. Overridable via plans.yml;
// these rows are the shipped configuration, not derived state.
func defaultFile() file {
	return file{
		Order: []string{TierFree, TierStarter, TierPro, TierEnterprise},
		Tiers: map[string]fileTier{
			TierFree: {
				Features: []string{
					"mieterapp.core",
					"documents.basic",
				},
				Limits: map[string]any{
					"objects":   3,
					"users":     2,
					"documents": 25,
					"api_calls": 1000,
				},
			},
			TierStarter: {
				Features: []string{
					"mieterapp.core",
					"documents.basic",
					"vermietify.core",
					"payments.basic",
				},
				Limits: map[string]any{
					"objects":   10,
					"users":     5,
					"documents": 250,
					"api_calls": 10000,
				},
			},
			TierPro: {
				Features: []string{
					"mieterapp.core",
					"documents.basic",
					"vermietify.core",
					"payments.basic",
					"hausmeisterpro.core",
					"payments.sepa",
					"reports.advanced",
					"api.access",
				},
				Limits: map[string]any{
					"objects":   100,
					"users":     25,
					"documents": 5000,
					"api_calls": 100000,
				},
			},
			TierEnterprise: {
				Features: []string{
					"mieterapp.core",
					"documents.basic",
					"vermietify.core",
					"payments.basic",
					"hausmeisterpro.core",
					"payments.sepa",
					"reports.advanced",
					"api.access",
					"sso.saml",
					"audit.export",
				},
				Limits: map[string]any{
					"objects":   "unlimited",
					"users":     "unlimited",
					"documents": "unlimited",
					"api_calls": "unlimited",
				},
			},
		},
		Apps: map[string]fileApp{
			"mieterapp":      {MinimumFeature: "mieterapp.core", SeatGated: false},
			"vermietify":     {MinimumFeature: "vermietify.core", SeatGated: true},
			"hausmeisterpro": {MinimumFeature: "hausmeisterpro.core", SeatGated: true},
		},
	}
}
