package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atldata/igs/pkg/analytics"
	apierr "github.com/atldata/igs/pkg/api/types/errors"
	apitracts "github.com/atldata/igs/pkg/api/types/tracts"
	kdb "github.com/atldata/igs/pkg/db"
	"github.com/atldata/igs/pkg/utils/pointer"
	"github.com/atldata/igs/pkg/utils/slices"
)

func GetStatisticsHandler(dbTracts kdb.TractInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		metric := c.QueryParam("metric")
		if metric == "" {
			metric = "inclusive_growth_score"
		}

		filter, err := queryParamToFilter(c)
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		// statistics run over the whole selection
		filter.Limit, filter.Offset = 0, 0

		values, err := dbTracts.MetricValues(ctx, metric, filter)
		if err != nil {
			if errors.Is(err, kdb.ErrUnknownMetric) {
				return apierr.BadRequest(
					fmt.Sprintf("unknown metric %q; see /api/metrics", metric), err,
				)
			}
			return storeError(err)
		}

		resp := apitracts.Statistics{
			Metric:      metric,
			DisplayName: kdb.DisplayName(metric),
			State:       filter.State,
			Year:        filter.Year,
		}
		sample := analytics.Present(
			slices.Map(values, func(v kdb.MetricValue) *float64 { return v.Value }),
		)
		if s, ok := analytics.Describe(sample); ok {
			resp.Count = s.Count
			resp.Mean = pointer.Ref(s.Mean)
			resp.Median = pointer.Ref(s.Median)
			resp.Min = pointer.Ref(s.Min)
			resp.Max = pointer.Ref(s.Max)
			resp.StdDev = pointer.Ref(s.StdDev)
		}

		return c.JSON(http.StatusOK, resp)
	}
}

func GetCorrelationHandler(dbTracts kdb.TractInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		metricX := c.QueryParam("metric_x")
		metricY := c.QueryParam("metric_y")
		if metricX == "" || metricY == "" {
			return apierr.BadRequest(
				"query parameters metric_x and metric_y are required", nil,
			)
		}

		filter, err := queryParamToFilter(c)
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}
		filter.Limit, filter.Offset = 0, 0

		pairs, err := dbTracts.MetricPairs(ctx, metricX, metricY, filter)
		if err != nil {
			if errors.Is(err, kdb.ErrUnknownMetric) {
				return apierr.BadRequest(
					fmt.Sprintf("unknown metric; see /api/metrics: %s", err), err,
				)
			}
			return storeError(err)
		}

		xs := slices.Map(pairs, func(p kdb.MetricPair) float64 { return p.X })
		ys := slices.Map(pairs, func(p kdb.MetricPair) float64 { return p.Y })

		return c.JSON(http.StatusOK, apitracts.Correlation{
			MetricX:    metricX,
			MetricY:    metricY,
			PearsonR:   analytics.Pearson(xs, ys),
			SampleSize: len(pairs),
		})
	}
}
