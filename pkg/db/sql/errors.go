package sql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"

	kdb "github.com/atldata/igs/pkg/db"
)

// classify maps backend-specific errors onto the sentinel errors of pkg/db.
//
// Querying before the ETL pipeline ever ran leaves no tracts table; both
// backends report that as their own flavor of "relation does not exist",
// which callers should see as kdb.ErrNotInitialized.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UndefinedTable {
			return fmt.Errorf("%w: %s", kdb.ErrNotInitialized, pgErr.Message)
		}
		return err
	}

	// modernc.org/sqlite reports a missing table as SQLITE_ERROR with
	// this message; there is no distinct code to switch on.
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %s", kdb.ErrNotInitialized, err)
	}

	return err
}
