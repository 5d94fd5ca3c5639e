package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierr "github.com/atldata/igs/pkg/api/types/errors"
	apitracts "github.com/atldata/igs/pkg/api/types/tracts"
	kdb "github.com/atldata/igs/pkg/db"
	"github.com/atldata/igs/pkg/utils/slices"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// queryParamToFilter builds a TractFilter from the common query parameters
// state, county, year, limit and offset.
func queryParamToFilter(c echo.Context) (kdb.TractFilter, error) {
	filter := kdb.TractFilter{
		State:  c.QueryParam("state"),
		County: c.QueryParam("county"),
		Limit:  defaultLimit,
	}

	year, err := apitracts.QueryYear(c.QueryParam("year"))
	if err != nil {
		return filter, err
	}
	filter.Year = year

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, fmt.Errorf("limit must be a positive integer: %q", raw)
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		filter.Limit = limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("offset must be a non-negative integer: %q", raw)
		}
		filter.Offset = offset
	}
	return filter, nil
}

func FindTractHandler(dbTracts kdb.TractInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		filter, err := queryParamToFilter(c)
		if err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		total, err := dbTracts.Count(ctx, filter)
		if err != nil {
			return storeError(err)
		}
		found, err := dbTracts.Find(ctx, filter)
		if err != nil {
			return storeError(err)
		}

		return c.JSON(http.StatusOK, apitracts.List{
			Count:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Tracts: slices.Map(found, apitracts.ComposeDetail),
		})
	}
}

func GetTractHandler(dbTracts kdb.TractInterface, paramKey string) echo.HandlerFunc {
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

		return c.JSON(http.StatusOK, apitracts.History{
			Fips:    fips,
			Records: slices.Map(records, apitracts.ComposeDetail),
		})
	}
}

func ListStatesHandler(dbTracts kdb.TractInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		states, err := dbTracts.States(c.Request().Context())
		if err != nil {
			return storeError(err)
		}

		return c.JSON(http.StatusOK, apitracts.StateList{
			States: slices.Map(states, func(s kdb.StateCount) apitracts.StateCount {
				return apitracts.StateCount{State: s.State, Tracts: s.Tracts}
			}),
		})
	}
}

// ListMetricsHandler serves the metric registry, so clients can discover
// what /statistics, /correlations and the insights endpoints accept.
func ListMetricsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, apitracts.ComposeMetricList())
	}
}

// storeError maps tract store failures to API errors.
func storeError(err error) *echo.HTTPError {
	if errors.Is(err, kdb.ErrNotInitialized) {
		return apierr.ServiceUnavailable(
			"database is not initialized; run igs-etl to load the dataset", err,
		)
	}
	return apierr.InternalServerError(err)
}
