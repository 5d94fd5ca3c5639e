package handlers_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	httptestutil "github.com/atldata/igs/internal/testutils/http"
	apiinsights "github.com/atldata/igs/pkg/api/types/insights"
	kdb "github.com/atldata/igs/pkg/db"
	dbmock "github.com/atldata/igs/pkg/db/mocks"
	"github.com/atldata/igs/pkg/utils/pointer"

	"github.com/atldata/igs/cmd/igsd/handlers"
)

func TestGetTrendsHandler(t *testing.T) {

	t.Run("it should follow yearly means and classify the movement", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.MetricValues = func(_ context.Context, metric string, f kdb.TractFilter) ([]kdb.MetricValue, error) {
			return []kdb.MetricValue{
				metricValue("a", 2019, pointer.Ref(50.0)),
				metricValue("b", 2019, pointer.Ref(54.0)),
				metricValue("a", 2020, pointer.Ref(55.0)),
				metricValue("b", 2020, pointer.Ref(57.0)),
				metricValue("a", 2021, pointer.Ref(58.0)),
				metricValue("b", 2021, nil),
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/insights/trends?state=Georgia")

		if err := handlers.GetTrendsHandler(mckdb)(c); err != nil {
			t.Fatal(err)
		}

		actual := apiinsights.Trend{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Metric != "inclusive_growth_score" || actual.State != "Georgia" {
			t.Errorf("echoed query: got %+v", actual)
		}
		if len(actual.Years) != 3 {
			t.Fatalf("years: got %d, want 3", len(actual.Years))
		}
		if actual.Years[0].Year != 2019 || actual.Years[0].Mean != 52.0 || actual.Years[0].Count != 2 {
			t.Errorf("2019 point: got %+v", actual.Years[0])
		}
		if actual.Years[2].Year != 2021 || actual.Years[2].Mean != 58.0 || actual.Years[2].Count != 1 {
			t.Errorf("2021 point: got %+v", actual.Years[2])
		}
		if actual.Direction != "improving" || actual.Change != 6.0 {
			t.Errorf("movement: got %s / %v", actual.Direction, actual.Change)
		}
	})

	t.Run("changes within the noise band should be stable", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.MetricValues = func(context.Context, string, kdb.TractFilter) ([]kdb.MetricValue, error) {
			return []kdb.MetricValue{
				metricValue("a", 2019, pointer.Ref(50.0)),
				metricValue("a", 2020, pointer.Ref(51.5)),
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/insights/trends")

		if err := handlers.GetTrendsHandler(mckdb)(c); err != nil {
			t.Fatal(err)
		}
		actual := apiinsights.Trend{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Direction != "stable" {
			t.Errorf("direction: got %s, want stable", actual.Direction)
		}
	})

	t.Run("no observations should be not found", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.MetricValues = func(context.Context, string, kdb.TractFilter) ([]kdb.MetricValue, error) {
			return nil, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/insights/trends")

		err := handlers.GetTrendsHandler(mckdb)(c)
		assertHTTPError(t, err, http.StatusNotFound)
	})
}

func TestGetRankingsHandler(t *testing.T) {

	t.Run("it should rank tracts both ways with percentiles", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.LatestYear = func(context.Context) (int, error) { return 2021, nil }
		mckdb.Impl.MetricValues = func(_ context.Context, _ string, f kdb.TractFilter) ([]kdb.MetricValue, error) {
			if f.Year == nil || *f.Year != 2021 {
				t.Errorf("year filter: got %v, want 2021", f.Year)
			}
			return []kdb.MetricValue{
				metricValue("a", 2021, pointer.Ref(80.0)),
				metricValue("b", 2021, pointer.Ref(40.0)),
				metricValue("c", 2021, pointer.Ref(60.0)),
				metricValue("d", 2021, nil),
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/insights/rankings?limit=2")

		if err := handlers.GetRankingsHandler(mckdb)(c); err != nil {
			t.Fatal(err)
		}

		actual := apiinsights.Rankings{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Year != 2021 {
			t.Errorf("year: got %d, want 2021", actual.Year)
		}
		if len(actual.Top) != 2 || len(actual.Bottom) != 2 {
			t.Fatalf("sizes: got %d top, %d bottom", len(actual.Top), len(actual.Bottom))
		}
		if actual.Top[0].Fips != "a" || actual.Top[0].Rank != 1 || actual.Top[1].Fips != "c" {
			t.Errorf("top: got %+v", actual.Top)
		}
		// the worst of 3 observed tracts holds rank 3 - 2 + 1 = 2
		if actual.Bottom[0].Fips != "b" || actual.Bottom[0].Rank != 2 || actual.Bottom[1].Fips != "c" || actual.Bottom[1].Rank != 3 {
			t.Errorf("bottom: got %+v", actual.Bottom)
		}
		// 2 of 3 observations sit strictly below 80
		if got := actual.Top[0].Percentile; math.Abs(got-66.66666666666667) > 1e-9 {
			t.Errorf("percentile: got %v", got)
		}
	})

	t.Run("no observations should be not found", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.LatestYear = func(context.Context) (int, error) { return 2021, nil }
		mckdb.Impl.MetricValues = func(context.Context, string, kdb.TractFilter) ([]kdb.MetricValue, error) {
			return nil, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/insights/rankings")

		err := handlers.GetRankingsHandler(mckdb)(c)
		assertHTTPError(t, err, http.StatusNotFound)
	})
}

func TestGetRegionalHandler(t *testing.T) {

	t.Run("it should summarize pillars and disparity", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.LatestYear = func(context.Context) (int, error) { return 2021, nil }
		mckdb.Impl.Find = func(context.Context, kdb.TractFilter) ([]kdb.Tract, error) {
			return []kdb.Tract{
				mkTract("a", "Fulton County", "Georgia", 2021, map[string]*float64{
					"inclusive_growth_score": pointer.Ref(80.0),
					"place":                  pointer.Ref(70.0),
					"economy":                pointer.Ref(60.0),
					"community":              pointer.Ref(75.0),
				}),
				mkTract("b", "Fulton County", "Georgia", 2021, map[string]*float64{
					"inclusive_growth_score": pointer.Ref(40.0),
					"place":                  pointer.Ref(50.0),
					"economy":                nil,
					"community":              pointer.Ref(45.0),
				}),
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/insights/regional?state=Georgia")

		if err := handlers.GetRegionalHandler(mckdb)(c); err != nil {
			t.Fatal(err)
		}

		actual := apiinsights.Regional{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.State != "Georgia" || actual.Year != 2021 || actual.TractCount != 2 {
			t.Errorf("frame: got %+v", actual)
		}
		if len(actual.Categories) != 3 {
			t.Fatalf("categories: got %d, want 3", len(actual.Categories))
		}
		place := actual.Categories[0]
		if place.Category != "Place (Overall)" || place.Mean == nil || *place.Mean != 60.0 || place.Count != 2 {
			t.Errorf("place: got %+v", place)
		}
		economy := actual.Categories[1]
		if economy.Mean == nil || *economy.Mean != 60.0 || economy.Count != 1 {
			t.Errorf("economy: got %+v", economy)
		}
		if actual.Disparity.Gap != 40.0 {
			t.Errorf("gap: got %v, want 40", actual.Disparity.Gap)
		}
		if actual.LowScoreTracts != 1 || actual.HighScoreTracts != 1 {
			t.Errorf("score bands: got %+v", actual)
		}
	})

	t.Run("no tracts should be not found", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.LatestYear = func(context.Context) (int, error) { return 2021, nil }
		mckdb.Impl.Find = func(context.Context, kdb.TractFilter) ([]kdb.Tract, error) {
			return []kdb.Tract{}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/insights/regional")

		err := handlers.GetRegionalHandler(mckdb)(c)
		assertHTTPError(t, err, http.StatusNotFound)
	})
}

func TestGetScorecardHandler(t *testing.T) {

	t.Run("it should grade the most recent year of the tract", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.GetByFips = func(_ context.Context, fips string, _ *int) ([]kdb.Tract, error) {
			return []kdb.Tract{
				mkTract(fips, "Fulton County", "Georgia", 2020, map[string]*float64{
					"inclusive_growth_score": pointer.Ref(60.0),
				}),
				mkTract(fips, "Fulton County", "Georgia", 2021, map[string]*float64{
					"inclusive_growth_score":          pointer.Ref(72.0),
					"place":                           pointer.Ref(68.0),
					"economy":                         pointer.Ref(75.0),
					"community":                       pointer.Ref(70.0),
					"internet_access_score":           pointer.Ref(88.0),
					"affordable_housing_score":        pointer.Ref(30.0),
					"new_businesses_score":            pointer.Ref(61.0),
					"small_business_loans_score":      pointer.Ref(42.0),
					"internet_access_base_pct":        pointer.Ref(95.0), // raw reading, not a score
				}),
			}, nil
		}
		mckdb.Impl.MetricValues = func(_ context.Context, _ string, f kdb.TractFilter) ([]kdb.MetricValue, error) {
			if f.State != "Georgia" || f.Year == nil || *f.Year != 2021 {
				t.Errorf("peer filter: got %+v", f)
			}
			return []kdb.MetricValue{
				metricValue("x", 2021, pointer.Ref(50.0)),
				metricValue("y", 2021, pointer.Ref(60.0)),
				metricValue("z", 2021, pointer.Ref(80.0)),
				metricValue("self", 2021, pointer.Ref(72.0)),
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/insights/scorecard/13121011100")
		c.SetPath("/api/insights/scorecard/:fips")
		c.SetParamNames("fips")
		c.SetParamValues("13121011100")

		if err := handlers.GetScorecardHandler(mckdb, "fips")(c); err != nil {
			t.Fatal(err)
		}

		actual := apiinsights.Scorecard{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Year != 2021 {
			t.Errorf("year: got %d, want the most recent 2021", actual.Year)
		}
		if actual.Score == nil || *actual.Score != 72.0 || actual.Grade != "B" {
			t.Errorf("grade: got %v / %s", actual.Score, actual.Grade)
		}
		// 2 of 4 peers sit strictly below 72
		if actual.StatePercentile == nil || *actual.StatePercentile != 50.0 {
			t.Errorf("state percentile: got %v", actual.StatePercentile)
		}

		strengths := map[string]bool{}
		for _, s := range actual.Strengths {
			strengths[s.Metric] = true
		}
		if !strengths["internet_access_score"] || !strengths["new_businesses_score"] {
			t.Errorf("strengths: got %+v", actual.Strengths)
		}
		if strengths["internet_access_base_pct"] {
			t.Error("raw base readings must not be graded")
		}

		weaknesses := map[string]bool{}
		for _, w := range actual.Weaknesses {
			weaknesses[w.Metric] = true
		}
		if !weaknesses["affordable_housing_score"] || !weaknesses["small_business_loans_score"] {
			t.Errorf("weaknesses: got %+v", actual.Weaknesses)
		}
	})

	t.Run("an unknown tract should be not found", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.GetByFips = func(context.Context, string, *int) ([]kdb.Tract, error) {
			return nil, kdb.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/insights/scorecard/9")
		c.SetPath("/api/insights/scorecard/:fips")
		c.SetParamNames("fips")
		c.SetParamValues("9")

		err := handlers.GetScorecardHandler(mckdb, "fips")(c)
		assertHTTPError(t, err, http.StatusNotFound)
	})
}

func TestGetYearOverYearHandler(t *testing.T) {

	t.Run("it should compare the two most recent years tract by tract", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.MetricValues = func(context.Context, string, kdb.TractFilter) ([]kdb.MetricValue, error) {
			return []kdb.MetricValue{
				// 2019 must be ignored; only 2020 vs 2021 counts
				metricValue("a", 2019, pointer.Ref(10.0)),
				metricValue("a", 2020, pointer.Ref(50.0)),
				metricValue("a", 2021, pointer.Ref(56.0)),
				metricValue("b", 2020, pointer.Ref(50.0)),
				metricValue("b", 2021, pointer.Ref(44.0)),
				metricValue("c", 2020, pointer.Ref(50.0)),
				metricValue("c", 2021, pointer.Ref(51.0)),
				metricValue("d", 2021, pointer.Ref(70.0)), // no 2020 reading
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/insights/year-over-year")

		if err := handlers.GetYearOverYearHandler(mckdb)(c); err != nil {
			t.Fatal(err)
		}

		actual := apiinsights.YearOverYear{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.FromYear != 2020 || actual.ToYear != 2021 {
			t.Errorf("years: got %d -> %d", actual.FromYear, actual.ToYear)
		}
		if actual.Improved != 1 || actual.Declined != 1 || actual.Stable != 1 {
			t.Errorf("counts: got %+v", actual)
		}
		if len(actual.Largest) != 3 {
			t.Fatalf("largest moves: got %d, want 3", len(actual.Largest))
		}
		if math.Abs(actual.Largest[0].Delta) != 6.0 {
			t.Errorf("largest move: got %+v", actual.Largest[0])
		}
	})

	t.Run("a single recorded year should be not found", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.MetricValues = func(context.Context, string, kdb.TractFilter) ([]kdb.MetricValue, error) {
			return []kdb.MetricValue{metricValue("a", 2021, pointer.Ref(50.0))}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/insights/year-over-year")

		err := handlers.GetYearOverYearHandler(mckdb)(c)
		assertHTTPError(t, err, http.StatusNotFound)
	})
}

func TestGetOpportunityHandler(t *testing.T) {

	t.Run("it should aggregate weighted scores by county", func(t *testing.T) {
		scores := func(base float64) map[string]*float64 {
			return map[string]*float64{
				"minority_women_owned_businesses_score": pointer.Ref(base),
				"inclusive_growth_score":                pointer.Ref(base),
				"internet_access_score":                 pointer.Ref(base),
				"affordable_housing_score":              pointer.Ref(base),
				"personal_income_score":                 pointer.Ref(base),
				"health_insurance_coverage_score":       pointer.Ref(base),
				"new_businesses_score":                  pointer.Ref(base),
			}
		}

		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.LatestYear = func(context.Context) (int, error) { return 2021, nil }
		mckdb.Impl.Find = func(context.Context, kdb.TractFilter) ([]kdb.Tract, error) {
			return []kdb.Tract{
				mkTract("a", "Fulton County", "Georgia", 2021, scores(70)),
				mkTract("b", "Fulton County", "Georgia", 2021, scores(60)),
				mkTract("c", "DeKalb County", "Georgia", 2021, scores(45)),
				mkTract("d", "Clayton County", "Georgia", 2021, nil), // nothing to score
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/insights/dei-opportunity?state=Georgia")

		if err := handlers.GetOpportunityHandler(mckdb)(c); err != nil {
			t.Fatal(err)
		}

		actual := apiinsights.Opportunity{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Year != 2021 || actual.State != "Georgia" {
			t.Errorf("frame: got %+v", actual)
		}
		if len(actual.Counties) != 2 {
			t.Fatalf("counties: got %d, want 2", len(actual.Counties))
		}

		fulton := actual.Counties[0]
		if fulton.County != "Fulton County" || fulton.Tracts != 2 {
			t.Errorf("first county: got %+v", fulton)
		}
		// uniform inputs make the weighted mean equal the input mean
		if math.Abs(fulton.Score-65.0) > 1e-9 || fulton.Category != "Excellent" {
			t.Errorf("fulton score: got %v / %s", fulton.Score, fulton.Category)
		}

		dekalb := actual.Counties[1]
		if dekalb.County != "DeKalb County" || dekalb.Category != "Moderate" {
			t.Errorf("second county: got %+v", dekalb)
		}
	})

	t.Run("no scorable tracts should be not found", func(t *testing.T) {
		mckdb := dbmock.NewTractInterface()
		mckdb.Impl.LatestYear = func(context.Context) (int, error) { return 2021, nil }
		mckdb.Impl.Find = func(context.Context, kdb.TractFilter) ([]kdb.Tract, error) {
			return []kdb.Tract{}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/insights/dei-opportunity")

		err := handlers.GetOpportunityHandler(mckdb)(c)
		assertHTTPError(t, err, http.StatusNotFound)
	})
}
