package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/atldata/igs/pkg/analytics"
	apierr "github.com/atldata/igs/pkg/api/types/errors"
	apiinsights "github.com/atldata/igs/pkg/api/types/insights"
	apitracts "github.com/atldata/igs/pkg/api/types/tracts"
	kdb "github.com/atldata/igs/pkg/db"
	"github.com/atldata/igs/pkg/utils/pointer"
)

const igsMetric = "inclusive_growth_score"

// queryMetric reads the metric query parameter, defaulting to the
// inclusive growth score.
func queryMetric(c echo.Context) string {
	if m := c.QueryParam("metric"); m != "" {
		return m
	}
	return igsMetric
}

// queryYearOrLatest resolves the year parameter, falling back to the most
// recent year in the store.
func queryYearOrLatest(c echo.Context, dbTracts kdb.TractInterface) (int, error) {
	year, err := apitracts.QueryYear(c.QueryParam("year"))
	if err != nil {
		return 0, apierr.BadRequest(err.Error(), err)
	}
	if year != nil {
		return *year, nil
	}

	latest, err := dbTracts.LatestYear(c.Request().Context())
	if err != nil {
		if errors.Is(err, kdb.ErrMissing) {
			return 0, apierr.NotFound()
		}
		return 0, storeError(err)
	}
	return latest, nil
}

func queryLimit(c echo.Context, fallback, max int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer: %q", raw)
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}

func metricError(err error, metric string) *echo.HTTPError {
	if errors.Is(err, kdb.ErrUnknownMetric) {
		return apierr.BadRequest(
			fmt.Sprintf("unknown metric %q; see /api/metrics", metric), err,
		)
	}
	return storeError(err)
}

// GetTrendsHandler follows the yearly mean of a metric over the recorded
// years and classifies the overall movement.
func GetTrendsHandler(dbTracts kdb.TractInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		metric := queryMetric(c)
		state := c.QueryParam("state")

		values, err := dbTracts.MetricValues(ctx, metric, kdb.TractFilter{State: state})
		if err != nil {
			return metricError(err, metric)
		}

		byYear := map[int][]float64{}
		for _, v := range values {
			if v.Value != nil {
				byYear[v.Year] = append(byYear[v.Year], *v.Value)
			}
		}
		if len(byYear) == 0 {
			return apierr.NotFound()
		}

		years := make([]int, 0, len(byYear))
		for y := range byYear {
			years = append(years, y)
		}
		sort.Ints(years)

		points := make([]apiinsights.YearPoint, len(years))
		for i, y := range years {
			s, _ := analytics.Describe(byYear[y])
			points[i] = apiinsights.YearPoint{Year: y, Mean: s.Mean, Count: s.Count}
		}

		var change *float64
		if len(points) > 1 {
			change = pointer.Ref(points[len(points)-1].Mean - points[0].Mean)
		}

		return c.JSON(http.StatusOK, apiinsights.Trend{
			Metric:      metric,
			DisplayName: kdb.DisplayName(metric),
			State:       state,
			Direction:   analytics.TrendDirection(change),
			Change:      pointer.SafeDeref(change),
			Years:       points,
		})
	}
}

// GetRankingsHandler lists the best and worst tracts by a metric in a year.
func GetRankingsHandler(dbTracts kdb.TractInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		metric := queryMetric(c)
		state := c.QueryParam("state")

		limit, err := queryLimit(c, 10, 50)
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		year, err := queryYearOrLatest(c, dbTracts)
		if err != nil {
			return err
		}

		values, err := dbTracts.MetricValues(
			ctx, metric, kdb.TractFilter{State: state, Year: &year},
		)
		if err != nil {
			return metricError(err, metric)
		}

		observed := make([]kdb.MetricValue, 0, len(values))
		sample := make([]float64, 0, len(values))
		for _, v := range values {
			if v.Value != nil {
				observed = append(observed, v)
				sample = append(sample, *v.Value)
			}
		}
		if len(observed) == 0 {
			return apierr.NotFound()
		}

		sort.SliceStable(observed, func(i, j int) bool {
			return *observed[i].Value > *observed[j].Value
		})

		rank := func(v kdb.MetricValue, nth int) apiinsights.RankedTract {
			return apiinsights.RankedTract{
				Rank:       nth,
				Fips:       v.Fips,
				County:     v.County,
				State:      v.State,
				Value:      *v.Value,
				Percentile: analytics.PercentileOf(sample, *v.Value),
			}
		}

		n := limit
		if n > len(observed) {
			n = len(observed)
		}
		top := make([]apiinsights.RankedTract, n)
		bottom := make([]apiinsights.RankedTract, n)
		for i := 0; i < n; i++ {
			top[i] = rank(observed[i], i+1)
			// bottom performers keep their rank in the full field
			bottom[i] = rank(observed[len(observed)-1-i], len(observed)-n+i+1)
		}

		return c.JSON(http.StatusOK, apiinsights.Rankings{
			Metric:      metric,
			DisplayName: kdb.DisplayName(metric),
			Year:        year,
			State:       state,
			Top:         top,
			Bottom:      bottom,
		})
	}
}

// pillars summarized by the regional and scorecard views.
var pillarMetrics = []string{"place", "economy", "community"}

// GetRegionalHandler summarizes the pillar scores of a state (or the whole
// dataset) in one year, with the disparity of the growth score.
func GetRegionalHandler(dbTracts kdb.TractInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		state := c.QueryParam("state")

		year, err := queryYearOrLatest(c, dbTracts)
		if err != nil {
			return err
		}

		tracts, err := dbTracts.Find(ctx, kdb.TractFilter{State: state, Year: &year})
		if err != nil {
			return storeError(err)
		}
		if len(tracts) == 0 {
			return apierr.NotFound()
		}

		categories := make([]apiinsights.CategoryScore, len(pillarMetrics))
		for i, pillar := range pillarMetrics {
			var sample []float64
			for _, t := range tracts {
				if v := t.Metric(pillar); v != nil {
					sample = append(sample, *v)
				}
			}
			categories[i] = apiinsights.CategoryScore{
				Category: kdb.DisplayName(pillar),
				Count:    len(sample),
			}
			if s, ok := analytics.Describe(sample); ok {
				categories[i].Mean = pointer.Ref(s.Mean)
			}
		}

		resp := apiinsights.Regional{
			State:      state,
			Year:       year,
			TractCount: len(tracts),
			Categories: categories,
		}

		var igs []float64
		for _, t := range tracts {
			v := t.Metric(igsMetric)
			if v == nil {
				continue
			}
			igs = append(igs, *v)
			if *v < 50 {
				resp.LowScoreTracts++
			}
			if *v >= 70 {
				resp.HighScoreTracts++
			}
		}
		if d, ok := analytics.DescribeDisparity(igs); ok {
			resp.Disparity = apiinsights.Disparity{Gap: d.Gap, CV: d.CV}
		}

		return c.JSON(http.StatusOK, resp)
	}
}

// isScoreColumn tells whether a metric is a 0-100 score, as opposed to the
// raw base/tract readings the scores are computed from.
func isScoreColumn(m kdb.Metric) bool {
	if m.Category == kdb.CategorySummary {
		return false
	}
	return !strings.Contains(m.Name, "_base") && !strings.Contains(m.Name, "_tract")
}

// GetScorecardHandler grades one tract: overall grade, pillar scores,
// percentile within its state, and its strongest and weakest indicators.
func GetScorecardHandler(dbTracts kdb.TractInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		fips := c.Param(paramKey)

		year, err := apitracts.QueryYear(c.QueryParam("year"))
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		records, err := dbTracts.GetByFips(ctx, fips, year)
		if err != nil {
			if errors.Is(err, kdb.ErrMissing) {
				return apierr.NotFound()
			}
			return storeError(err)
		}
		rec := records[len(records)-1] // most recent year

		igs := rec.Metric(igsMetric)
		resp := apiinsights.Scorecard{
			Fips:   rec.Fips,
			County: rec.County,
			State:  rec.State,
			Year:   rec.Year,
			Score:  igs,
			Grade:  analytics.Grade(igs),
		}

		if igs != nil {
			peers, err := dbTracts.MetricValues(
				ctx, igsMetric, kdb.TractFilter{State: rec.State, Year: &rec.Year},
			)
			if err != nil {
				return storeError(err)
			}
			var sample []float64
			for _, p := range peers {
				if p.Value != nil {
					sample = append(sample, *p.Value)
				}
			}
			if len(sample) > 0 {
				resp.StatePercentile = pointer.Ref(analytics.PercentileOf(sample, *igs))
			}
		}

		resp.Categories = make([]apiinsights.CategoryScore, len(pillarMetrics))
		for i, pillar := range pillarMetrics {
			cs := apiinsights.CategoryScore{Category: kdb.DisplayName(pillar)}
			if v := rec.Metric(pillar); v != nil {
				cs.Mean = v
				cs.Count = 1
			}
			resp.Categories[i] = cs
		}

		var graded []apiinsights.GradedMetric
		for _, m := range kdb.Metrics {
			if !isScoreColumn(m) {
				continue
			}
			v := rec.Metric(m.Name)
			if v == nil {
				continue
			}
			graded = append(graded, apiinsights.GradedMetric{
				Metric:      m.Name,
				DisplayName: m.DisplayName,
				Value:       *v,
				Grade:       analytics.Grade(v),
			})
		}
		sort.SliceStable(graded, func(i, j int) bool { return graded[i].Value > graded[j].Value })
		for _, g := range graded {
			if g.Value >= 60 && len(resp.Strengths) < 5 {
				resp.Strengths = append(resp.Strengths, g)
			}
		}
		for i := len(graded) - 1; 0 <= i; i-- {
			if g := graded[i]; g.Value < 45 && len(resp.Weaknesses) < 5 {
				resp.Weaknesses = append(resp.Weaknesses, g)
			}
		}

		return c.JSON(http.StatusOK, resp)
	}
}

// GetYearOverYearHandler compares a metric between the two most recent
// recorded years, tract by tract.
func GetYearOverYearHandler(dbTracts kdb.TractInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		metric := queryMetric(c)
		state := c.QueryParam("state")

		values, err := dbTracts.MetricValues(ctx, metric, kdb.TractFilter{State: state})
		if err != nil {
			return metricError(err, metric)
		}

		type tractYears struct {
			county, state string
			byYear        map[int]float64
		}
		byFips := map[string]*tractYears{}
		yearSet := map[int]bool{}
		for _, v := range values {
			if v.Value == nil {
				continue
			}
			yearSet[v.Year] = true
			ty, ok := byFips[v.Fips]
			if !ok {
				ty = &tractYears{county: v.County, state: v.State, byYear: map[int]float64{}}
				byFips[v.Fips] = ty
			}
			ty.byYear[v.Year] = *v.Value
		}
		if len(yearSet) < 2 {
			return apierr.NotFound()
		}

		years := make([]int, 0, len(yearSet))
		for y := range yearSet {
			years = append(years, y)
		}
		sort.Ints(years)
		from, to := years[len(years)-2], years[len(years)-1]

		resp := apiinsights.YearOverYear{
			Metric:      metric,
			DisplayName: kdb.DisplayName(metric),
			FromYear:    from,
			ToYear:      to,
			State:       state,
		}

		var changes []apiinsights.TractChange
		for fips, ty := range byFips {
			before, okBefore := ty.byYear[from]
			after, okAfter := ty.byYear[to]
			if !okBefore || !okAfter {
				continue
			}
			delta := after - before
			switch analytics.YearOverYearTrend(&delta) {
			case "improved":
				resp.Improved++
			case "declined":
				resp.Declined++
			default:
				resp.Stable++
			}
			changes = append(changes, apiinsights.TractChange{
				Fips:      fips,
				County:    ty.county,
				State:     ty.state,
				From:      before,
				To:        after,
				Delta:     delta,
				Direction: analytics.YearOverYearTrend(&delta),
			})
		}

		sort.SliceStable(changes, func(i, j int) bool {
			return math.Abs(changes[i].Delta) > math.Abs(changes[j].Delta)
		})
		if len(changes) > 5 {
			changes = changes[:5]
		}
		resp.Largest = changes

		return c.JSON(http.StatusOK, resp)
	}
}

// GetOpportunityHandler ranks counties by the weighted opportunity score
// of their tracts.
func GetOpportunityHandler(dbTracts kdb.TractInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		state := c.QueryParam("state")

		limit, err := queryLimit(c, 20, 100)
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		year, err := queryYearOrLatest(c, dbTracts)
		if err != nil {
			return err
		}

		tracts, err := dbTracts.Find(ctx, kdb.TractFilter{State: state, Year: &year})
		if err != nil {
			return storeError(err)
		}

		type countyAgg struct {
			county, state string
			sum           float64
			tracts        int
		}
		byCounty := map[string]*countyAgg{}
		for _, t := range tracts {
			score := analytics.OpportunityScore(t.Scores)
			if score == nil {
				continue
			}
			key := t.State + "/" + t.County
			agg, ok := byCounty[key]
			if !ok {
				agg = &countyAgg{county: t.County, state: t.State}
				byCounty[key] = agg
			}
			agg.sum += *score
			agg.tracts++
		}
		if len(byCounty) == 0 {
			return apierr.NotFound()
		}

		counties := make([]apiinsights.CountyOpportunity, 0, len(byCounty))
		for _, agg := range byCounty {
			mean := agg.sum / float64(agg.tracts)
			counties = append(counties, apiinsights.CountyOpportunity{
				County:   agg.county,
				State:    agg.state,
				Score:    mean,
				Category: analytics.OpportunityCategory(mean),
				Tracts:   agg.tracts,
			})
		}
		sort.SliceStable(counties, func(i, j int) bool {
			if counties[i].Score != counties[j].Score {
				return counties[i].Score > counties[j].Score
			}
			return counties[i].County < counties[j].County
		})
		if len(counties) > limit {
			counties = counties[:limit]
		}

		return c.JSON(http.StatusOK, apiinsights.Opportunity{
			Year:     year,
			State:    state,
			Counties: counties,
		})
	}
}
