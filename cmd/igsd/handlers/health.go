package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apitracts "github.com/atldata/igs/pkg/api/types/tracts"
	kdb "github.com/atldata/igs/pkg/db"
	"github.com/atldata/igs/pkg/utils/pointer"
)

// HealthHandler reports service health. database labels the backend in use.
//
// A reachable but unloaded store is reported as "not_initialized" with
// status 200; the daemon itself is fine, only the dataset is absent.
func HealthHandler(dbTracts kdb.TractInterface, database string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		resp := apitracts.Health{Status: "healthy", Database: database}

		records, err := dbTracts.Count(ctx, kdb.TractFilter{})
		if err != nil {
			if errors.Is(err, kdb.ErrNotInitialized) {
				resp.Status = "not_initialized"
				return c.JSON(http.StatusOK, resp)
			}
			resp.Status = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		resp.Records = pointer.Ref(records)

		if year, err := dbTracts.LatestYear(ctx); err == nil {
			resp.LatestYear = pointer.Ref(year)
		}

		return c.JSON(http.StatusOK, resp)
	}
}
