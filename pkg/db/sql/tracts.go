package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	kdb "github.com/atldata/igs/pkg/db"
)

type tractStore struct { // implements kdb.TractInterface
	db      *sql.DB
	dialect Dialect
}

// condition accumulates WHERE clauses with dialect-correct placeholders.
type condition struct {
	dialect Dialect
	clauses []string
	args    []any
}

func (c *condition) add(column string, value any) {
	c.clauses = append(
		c.clauses,
		fmt.Sprintf(`"%s" = %s`, column, c.dialect.Placeholder(len(c.args)+1)),
	)
	c.args = append(c.args, value)
}

func (c *condition) raw(clause string) {
	c.clauses = append(c.clauses, clause)
}

func (c *condition) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// next is the 1-based index of the next placeholder after the conditions.
func (c *condition) next() int {
	return len(c.args) + 1
}

func filterCondition(d Dialect, f kdb.TractFilter) *condition {
	c := &condition{dialect: d}
	if f.State != "" {
		c.add("state", f.State)
	}
	if f.County != "" {
		c.add("county", f.County)
	}
	if f.Year != nil {
		c.add("year", *f.Year)
	}
	return c
}

// paginate appends LIMIT/OFFSET for positive Limit/Offset.
//
// An Offset without a Limit still gets a LIMIT clause; the dialect renders
// the "all rows" expression its backend accepts there.
func paginate(d Dialect, f kdb.TractFilter, next int, args []any) (string, []any) {
	q := ""
	switch {
	case f.Limit > 0:
		q += fmt.Sprintf(" LIMIT %s", d.Placeholder(next))
		args = append(args, f.Limit)
		next++
	case f.Offset > 0:
		q += " LIMIT " + d.NoLimit
	}
	if f.Offset > 0 {
		q += fmt.Sprintf(" OFFSET %s", d.Placeholder(next))
		args = append(args, f.Offset)
	}
	return q, args
}

const orderByIdentity = ` ORDER BY "state", "county", "census_tract_fips", "year"`

// selectColumns is the full column list of a tract row,
// identity first, metric columns in registry order.
func selectColumns() string {
	cols := []string{
		`"id"`, `"is_opportunity_zone"`, `"census_tract_fips"`,
		`"county"`, `"state"`, `"year"`,
	}
	for _, m := range kdb.Metrics {
		cols = append(cols, `"`+m.Name+`"`)
	}
	return strings.Join(cols, ", ")
}

func scanTract(rows *sql.Rows) (kdb.Tract, error) {
	t := kdb.Tract{Scores: make(map[string]*float64, len(kdb.Metrics))}

	var oz sql.NullString
	metrics := make([]sql.NullFloat64, len(kdb.Metrics))

	dest := []any{&t.Id, &oz, &t.Fips, &t.County, &t.State, &t.Year}
	for i := range metrics {
		dest = append(dest, &metrics[i])
	}

	if err := rows.Scan(dest...); err != nil {
		return kdb.Tract{}, err
	}

	if oz.Valid {
		t.OpportunityZone = &oz.String
	}
	for i, m := range kdb.Metrics {
		if metrics[i].Valid {
			v := metrics[i].Float64
			t.Scores[m.Name] = &v
		} else {
			t.Scores[m.Name] = nil
		}
	}
	return t, nil
}

func (s *tractStore) Count(ctx context.Context, filter kdb.TractFilter) (int, error) {
	cond := filterCondition(s.dialect, filter)

	var total int
	err := s.db.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM "tracts"`+cond.where(), cond.args...,
	).Scan(&total)
	if err != nil {
		return 0, classify(err)
	}
	return total, nil
}

func (s *tractStore) Find(ctx context.Context, filter kdb.TractFilter) ([]kdb.Tract, error) {
	cond := filterCondition(s.dialect, filter)

	query := fmt.Sprintf(
		`SELECT %s FROM "tracts"%s%s`, selectColumns(), cond.where(), orderByIdentity,
	)
	page, args := paginate(s.dialect, filter, cond.next(), cond.args)
	query += page

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	tracts := []kdb.Tract{}
	for rows.Next() {
		t, err := scanTract(rows)
		if err != nil {
			return nil, err
		}
		tracts = append(tracts, t)
	}
	return tracts, rows.Err()
}

func (s *tractStore) GetByFips(ctx context.Context, fips string, year *int) ([]kdb.Tract, error) {
	cond := &condition{dialect: s.dialect}
	cond.add("census_tract_fips", fips)
	if year != nil {
		cond.add("year", *year)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM "tracts"%s ORDER BY "year"`, selectColumns(), cond.where(),
	)

	rows, err := s.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var tracts []kdb.Tract
	for rows.Next() {
		t, err := scanTract(rows)
		if err != nil {
			return nil, err
		}
		tracts = append(tracts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tracts) == 0 {
		return nil, fmt.Errorf("%w: tract %s", kdb.ErrMissing, fips)
	}
	return tracts, nil
}

func (s *tractStore) States(ctx context.Context) ([]kdb.StateCount, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT "state", COUNT(DISTINCT "census_tract_fips")
		 FROM "tracts" GROUP BY "state" ORDER BY "state"`,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var states []kdb.StateCount
	for rows.Next() {
		var sc kdb.StateCount
		if err := rows.Scan(&sc.State, &sc.Tracts); err != nil {
			return nil, err
		}
		states = append(states, sc)
	}
	return states, rows.Err()
}

func (s *tractStore) MetricValues(ctx context.Context, metric string, filter kdb.TractFilter) ([]kdb.MetricValue, error) {
	if !kdb.IsMetric(metric) {
		return nil, fmt.Errorf("%w: %s", kdb.ErrUnknownMetric, metric)
	}

	cond := filterCondition(s.dialect, filter)
	query := fmt.Sprintf(
		`SELECT "census_tract_fips", "state", "county", "year", "%s" FROM "tracts"%s%s`,
		metric, cond.where(), orderByIdentity,
	)
	page, args := paginate(s.dialect, filter, cond.next(), cond.args)
	query += page

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var values []kdb.MetricValue
	for rows.Next() {
		var mv kdb.MetricValue
		var v sql.NullFloat64
		if err := rows.Scan(&mv.Fips, &mv.State, &mv.County, &mv.Year, &v); err != nil {
			return nil, err
		}
		if v.Valid {
			mv.Value = &v.Float64
		}
		values = append(values, mv)
	}
	return values, rows.Err()
}

func (s *tractStore) MetricPairs(ctx context.Context, metricX, metricY string, filter kdb.TractFilter) ([]kdb.MetricPair, error) {
	for _, m := range []string{metricX, metricY} {
		if !kdb.IsMetric(m) {
			return nil, fmt.Errorf("%w: %s", kdb.ErrUnknownMetric, m)
		}
	}

	cond := filterCondition(s.dialect, filter)
	cond.raw(fmt.Sprintf(`"%s" IS NOT NULL`, metricX))
	cond.raw(fmt.Sprintf(`"%s" IS NOT NULL`, metricY))

	query := fmt.Sprintf(
		`SELECT "%s", "%s" FROM "tracts"%s`, metricX, metricY, cond.where(),
	)

	rows, err := s.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var pairs []kdb.MetricPair
	for rows.Next() {
		var p kdb.MetricPair
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (s *tractStore) LatestYear(ctx context.Context) (int, error) {
	var year sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX("year") FROM "tracts"`).Scan(&year)
	if err != nil {
		return 0, classify(err)
	}
	if !year.Valid {
		return 0, fmt.Errorf("%w: no tracts recorded", kdb.ErrMissing)
	}
	return int(year.Int64), nil
}
