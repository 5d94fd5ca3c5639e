package insights

// Types of the /api/insights responses. These are derived views over the
// tracts table; the raw records stay on /api/tracts.

// YearPoint is the mean of a metric over one year.
type YearPoint struct {
	Year  int     `json:"year"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Trend is a metric followed over the recorded years.
type Trend struct {
	Metric      string      `json:"metric"`
	DisplayName string      `json:"display_name"`
	State       string      `json:"state,omitempty"`
	Direction   string      `json:"direction"`
	Change      float64     `json:"change"`
	Years       []YearPoint `json:"years"`
}

// RankedTract is one entry of a ranking.
type RankedTract struct {
	Rank       int     `json:"rank"`
	Fips       string  `json:"census_tract_fips"`
	County     string  `json:"county"`
	State      string  `json:"state"`
	Value      float64 `json:"value"`
	Percentile float64 `json:"percentile"`
}

// Rankings are the best and worst tracts by one metric in one year.
type Rankings struct {
	Metric      string        `json:"metric"`
	DisplayName string        `json:"display_name"`
	Year        int           `json:"year"`
	State       string        `json:"state,omitempty"`
	Top         []RankedTract `json:"top"`
	Bottom      []RankedTract `json:"bottom"`
}

// CategoryScore is the mean of one pillar score over the selected tracts.
type CategoryScore struct {
	Category string   `json:"category"`
	Mean     *float64 `json:"mean"`
	Count    int      `json:"count"`
}

// Disparity quantifies the spread of the growth score.
type Disparity struct {
	Gap float64 `json:"gap"`
	CV  float64 `json:"coefficient_of_variation"`
}

// Regional is the pillar-level summary of a state or the whole dataset.
type Regional struct {
	State           string          `json:"state,omitempty"`
	Year            int             `json:"year"`
	TractCount      int             `json:"tract_count"`
	Categories      []CategoryScore `json:"categories"`
	Disparity       Disparity       `json:"disparity"`
	LowScoreTracts  int             `json:"low_score_tracts"`
	HighScoreTracts int             `json:"high_score_tracts"`
}

// GradedMetric is one metric with its letter grade.
type GradedMetric struct {
	Metric      string  `json:"metric"`
	DisplayName string  `json:"display_name"`
	Value       float64 `json:"value"`
	Grade       string  `json:"grade"`
}

// Scorecard grades one tract-year.
type Scorecard struct {
	Fips            string          `json:"census_tract_fips"`
	County          string          `json:"county"`
	State           string          `json:"state"`
	Year            int             `json:"year"`
	Score           *float64        `json:"inclusive_growth_score"`
	Grade           string          `json:"grade"`
	StatePercentile *float64        `json:"state_percentile"`
	Categories      []CategoryScore `json:"categories"`
	Strengths       []GradedMetric  `json:"strengths"`
	Weaknesses      []GradedMetric  `json:"weaknesses"`
}

// TractChange is one tract's move between two years.
type TractChange struct {
	Fips      string  `json:"census_tract_fips"`
	County    string  `json:"county"`
	State     string  `json:"state"`
	From      float64 `json:"from"`
	To        float64 `json:"to"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"`
}

// YearOverYear compares a metric between two consecutive recorded years.
type YearOverYear struct {
	Metric      string        `json:"metric"`
	DisplayName string        `json:"display_name"`
	FromYear    int           `json:"from_year"`
	ToYear      int           `json:"to_year"`
	State       string        `json:"state,omitempty"`
	Improved    int           `json:"improved"`
	Declined    int           `json:"declined"`
	Stable      int           `json:"stable"`
	Largest     []TractChange `json:"largest_moves"`
}

// CountyOpportunity is the investment-opportunity score of one county.
type CountyOpportunity struct {
	County   string  `json:"county"`
	State    string  `json:"state"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
	Tracts   int     `json:"tract_count"`
}

// Opportunity ranks counties by the weighted opportunity score.
type Opportunity struct {
	Year     int                 `json:"year"`
	State    string              `json:"state,omitempty"`
	Counties []CountyOpportunity `json:"counties"`
}
