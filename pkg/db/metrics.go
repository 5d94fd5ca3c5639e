package db

// Category of a metric in the IGS dataset.
//
// The dataset groups its indicators under three pillars (Place, Economy,
// Community) plus the composite summary scores.
type Category string

const (
	CategorySummary   Category = "Summary"
	CategoryPlace     Category = "Place"
	CategoryEconomy   Category = "Economy"
	CategoryCommunity Category = "Community"
)

// Metric describes one numeric column of the tracts table.
//
// The metric registry is the single source of truth for the dataset schema:
// CSV header mapping in the ETL, DDL generation and scan targets in the sql
// store, metric-name validation in the API, and display names in insights
// all derive from it.
type Metric struct {
	// Name is the column name in the database and the metric name on the API.
	Name string

	// Header is the column header in the raw CSV.
	Header string

	// DisplayName is a human readable name, used by insights responses.
	DisplayName string

	Category Category
}

// identity columns of the raw CSV, in no particular order.
const (
	HeaderOpportunityZone = "Is an Opportunity Zone"
	HeaderFips            = "Census Tract FIPS code"
	HeaderCounty          = "County"
	HeaderState           = "State"
	HeaderYear            = "Year"
)

func single(name, header, display string, cat Category) []Metric {
	return []Metric{{Name: name, Header: header, DisplayName: display, Category: cat}}
}

// group builds the score/base/tract triple an indicator is published as.
//
// Most indicators report base and tract shares as percentages ("X Base, %");
// index-valued ones (Labor Market Engagement, Gini Coefficient) do not.
func group(prefix, header, display string, cat Category, pct bool) []Metric {
	baseSuffix, tractSuffix := " Base", " Tract"
	baseName, tractName := prefix+"_base", prefix+"_tract"
	if pct {
		baseSuffix, tractSuffix = " Base, %", " Tract, %"
		baseName, tractName = prefix+"_base_pct", prefix+"_tract_pct"
	}
	return []Metric{
		{Name: prefix + "_score", Header: header + " Score", DisplayName: display, Category: cat},
		{Name: baseName, Header: header + baseSuffix, DisplayName: display + " (Base)", Category: cat},
		{Name: tractName, Header: header + tractSuffix, DisplayName: display + " (Tract)", Category: cat},
	}
}

func concat(groups ...[]Metric) []Metric {
	var all []Metric
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// Metrics enumerates every metric column, in dataset order.
var Metrics = concat(
	single("inclusive_growth_score", "Inclusive Growth Score", "Inclusive Growth Score", CategorySummary),
	single("growth", "Growth", "Growth", CategorySummary),
	single("inclusion", "Inclusion", "Inclusion", CategorySummary),

	single("place", "Place", "Place (Overall)", CategoryPlace),
	single("place_growth", "Place Growth", "Place Growth", CategoryPlace),
	single("place_inclusion", "Place Inclusion", "Place Inclusion", CategoryPlace),
	group("net_occupancy", "Net Occupancy", "Net Occupancy", CategoryPlace, true),
	group("residential_real_estate_value", "Residential Real Estate Value", "Residential Real Estate Value", CategoryPlace, true),
	group("acres_of_park_land", "Acres of Park Land", "Park Land Access", CategoryPlace, true),
	group("affordable_housing", "Affordable Housing", "Affordable Housing", CategoryPlace, true),
	group("internet_access", "Internet Access", "Internet Access", CategoryPlace, true),
	group("travel_time_to_work", "Travel Time to Work", "Travel Time to Work", CategoryPlace, true),

	single("economy", "Economy", "Economy (Overall)", CategoryEconomy),
	single("economy_growth", "Economy Growth", "Economy Growth", CategoryEconomy),
	single("economy_inclusion", "Economy Inclusion", "Economy Inclusion", CategoryEconomy),
	group("new_businesses", "New Businesses", "New Businesses", CategoryEconomy, true),
	group("spend_growth", "Spend Growth", "Spending Growth", CategoryEconomy, true),
	group("small_business_loans", "Small Business Loans", "Small Business Loans", CategoryEconomy, true),
	group("minority_women_owned_businesses", "Minority/Women Owned Businesses", "Minority/Women-Owned Businesses", CategoryEconomy, true),
	group("labor_market_engagement_index", "Labor Market Engagement Index", "Labor Market Engagement", CategoryEconomy, false),
	group("commercial_diversity", "Commercial Diversity", "Commercial Diversity", CategoryEconomy, true),

	single("community", "Community", "Community (Overall)", CategoryCommunity),
	single("community_growth", "Community Growth", "Community Growth", CategoryCommunity),
	single("community_inclusion", "Community Inclusion", "Community Inclusion", CategoryCommunity),
	group("personal_income", "Personal Income", "Personal Income", CategoryCommunity, true),
	group("spending_per_capita", "Spending per Capita", "Spending Per Capita", CategoryCommunity, true),
	group("female_above_poverty", "Female Above Poverty", "Female Above Poverty", CategoryCommunity, true),
	group("gini_coefficient", "Gini Coefficient", "Income Equality (Gini)", CategoryCommunity, false),
	group("early_education_enrollment", "Early Education Enrollment", "Early Education Enrollment", CategoryCommunity, true),
	group("health_insurance_coverage", "Health Insurance Coverage", "Health Insurance Coverage", CategoryCommunity, true),
)

var (
	metricByName   = map[string]Metric{}
	metricByHeader = map[string]Metric{}
)

func init() {
	for _, m := range Metrics {
		metricByName[m.Name] = m
		metricByHeader[m.Header] = m
	}
}

// LookupMetric finds a metric by its database/API name.
func LookupMetric(name string) (Metric, bool) {
	m, ok := metricByName[name]
	return m, ok
}

// LookupMetricByHeader finds a metric by its raw CSV header.
func LookupMetricByHeader(header string) (Metric, bool) {
	m, ok := metricByHeader[header]
	return m, ok
}

// IsMetric tells whether name is a known metric name.
func IsMetric(name string) bool {
	_, ok := metricByName[name]
	return ok
}

// MetricNames lists every metric name, in dataset order.
func MetricNames() []string {
	names := make([]string, len(Metrics))
	for i, m := range Metrics {
		names[i] = m.Name
	}
	return names
}

// DisplayName resolves the display name of a metric.
// Unknown names are passed through as-is.
func DisplayName(name string) string {
	if m, ok := metricByName[name]; ok {
		return m.DisplayName
	}
	return name
}
