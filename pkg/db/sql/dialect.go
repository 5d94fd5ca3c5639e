package sql

import (
	"fmt"
	"strings"

	kdb "github.com/atldata/igs/pkg/db"
)

// Dialect captures the few points where SQLite and PostgreSQL disagree
// for the queries this store issues.
type Dialect struct {
	Name string

	// SerialPK is the column definition of the autoincrement primary key.
	SerialPK string

	// FloatType is the column type used for metric values.
	FloatType string

	// NoLimit is the LIMIT expression meaning "all rows". SQLite accepts
	// OFFSET only after a LIMIT, so offset-only queries need it spelled out.
	NoLimit string

	numberedPlaceholders bool
}

var (
	SQLite = Dialect{
		Name:      "sqlite",
		SerialPK:  "INTEGER PRIMARY KEY AUTOINCREMENT",
		FloatType: "REAL",
		NoLimit:   "-1",
	}
	Postgres = Dialect{
		Name:                 "postgres",
		SerialPK:             "BIGSERIAL PRIMARY KEY",
		FloatType:            "DOUBLE PRECISION",
		NoLimit:              "ALL",
		numberedPlaceholders: true,
	}
)

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d.numberedPlaceholders {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Placeholders renders bind parameters from+0 ... from+n-1, comma separated.
func (d Dialect) Placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.Placeholder(from + i)
	}
	return strings.Join(ps, ", ")
}

// CreateTableDDL renders the schema of the tracts table.
// Metric columns are generated from the registry.
func (d Dialect) CreateTableDDL() []string {
	cols := []string{
		`"id" ` + d.SerialPK,
		`"is_opportunity_zone" TEXT`,
		`"census_tract_fips" TEXT NOT NULL`,
		`"county" TEXT NOT NULL`,
		`"state" TEXT NOT NULL`,
		`"year" INTEGER NOT NULL`,
	}
	for _, m := range kdb.Metrics {
		cols = append(cols, fmt.Sprintf(`"%s" %s`, m.Name, d.FloatType))
	}

	return []string{
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS \"tracts\" (\n\t%s\n)",
			strings.Join(cols, ",\n\t"),
		),
		`CREATE INDEX IF NOT EXISTS "idx_tracts_fips" ON "tracts" ("census_tract_fips")`,
		`CREATE INDEX IF NOT EXISTS "idx_tracts_county" ON "tracts" ("county")`,
		`CREATE INDEX IF NOT EXISTS "idx_tracts_state" ON "tracts" ("state")`,
		`CREATE INDEX IF NOT EXISTS "idx_tracts_year" ON "tracts" ("year")`,
	}
}
