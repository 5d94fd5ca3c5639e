package analytics

// OpportunityWeights is the weighting of the DEI Opportunity Score.
//
// The score favors minority/women-owned business activity and overall
// inclusive growth, with digital access, housing, income, health coverage
// and business formation as secondary signals.
var OpportunityWeights = map[string]float64{
	"minority_women_owned_businesses_score": 0.25,
	"inclusive_growth_score":                0.20,
	"internet_access_score":                 0.15,
	"affordable_housing_score":              0.15,
	"personal_income_score":                 0.10,
	"health_insurance_coverage_score":       0.10,
	"new_businesses_score":                  0.05,
}

// OpportunityScore is the weighted DEI Opportunity Score of one tract.
// Nil when none of the weighted metrics is present.
func OpportunityScore(scores map[string]*float64) *float64 {
	return WeightedScore(scores, OpportunityWeights)
}

// OpportunityCategory labels a county-average opportunity score.
func OpportunityCategory(score float64) string {
	switch {
	case score >= 65:
		return "Excellent"
	case score >= 50:
		return "Good"
	case score >= 40:
		return "Moderate"
	default:
		return "Developing"
	}
}
