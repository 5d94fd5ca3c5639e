package db

import (
	"context"
	"errors"
)

var (
	// ErrMissing : queried record does not exist.
	ErrMissing = errors.New("missing")

	// ErrNotInitialized : the tracts table does not exist yet.
	// Run the ETL pipeline to create and populate it.
	ErrNotInitialized = errors.New("database is not initialized")

	// ErrUnknownMetric : metric name is not in the registry.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrUnsupported : the operation is not supported by this backend.
	ErrUnsupported = errors.New("not supported by this backend")
)

// Tract is one census tract observed in one year.
//
// Identity fields are explicit; the 66 numeric indicator columns are held in
// Scores keyed by registry metric name. A missing or null column is a nil
// entry (or an absent key; Metric treats both alike).
type Tract struct {
	Id int

	// OpportunityZone is the dataset's "Is an Opportunity Zone" flag,
	// kept as free text ("Yes"/"No"), nil when unknown.
	OpportunityZone *string

	Fips   string
	County string
	State  string
	Year   int

	Scores map[string]*float64
}

// Metric returns the value of the named metric, or nil when absent.
func (t Tract) Metric(name string) *float64 {
	if t.Scores == nil {
		return nil
	}
	return t.Scores[name]
}

// SetMetric records a metric value. A nil value marks the metric as null.
func (t *Tract) SetMetric(name string, value *float64) {
	if t.Scores == nil {
		t.Scores = map[string]*float64{}
	}
	t.Scores[name] = value
}

// TractFilter selects tracts by geography and year.
//
// Zero values mean "no constraint". Limit <= 0 means unlimited.
type TractFilter struct {
	State  string
	County string
	Year   *int

	Limit  int
	Offset int
}

// StateCount is the number of distinct tracts recorded for a state.
type StateCount struct {
	State  string
	Tracts int
}

// MetricValue is one metric observed at one tract-year.
type MetricValue struct {
	Fips   string
	State  string
	County string
	Year   int
	Value  *float64
}

// MetricPair is a pairwise-complete observation of two metrics,
// used for correlation analysis.
type MetricPair struct {
	X float64
	Y float64
}

type TractInterface interface {
	// Count counts tract records matching the filter,
	// ignoring Limit and Offset.
	Count(ctx context.Context, filter TractFilter) (int, error)

	// Find retrieves tracts matching the filter, ordered by
	// (state, county, fips, year), honoring Limit and Offset.
	Find(ctx context.Context, filter TractFilter) ([]Tract, error)

	// GetByFips retrieves every year of a tract, ordered by year.
	// When year is non-nil only that year is returned.
	//
	// Returns ErrMissing when no record matches.
	GetByFips(ctx context.Context, fips string, year *int) ([]Tract, error)

	// States lists states with their distinct tract counts.
	States(ctx context.Context) ([]StateCount, error)

	// MetricValues retrieves the named metric for tracts matching the
	// filter, null values included.
	//
	// Returns ErrUnknownMetric for names not in the registry.
	MetricValues(ctx context.Context, metric string, filter TractFilter) ([]MetricValue, error)

	// MetricPairs retrieves rows where both metrics are non-null.
	//
	// Returns ErrUnknownMetric for names not in the registry.
	MetricPairs(ctx context.Context, metricX, metricY string, filter TractFilter) ([]MetricPair, error)

	// LatestYear is the most recent year present in the table.
	// Returns ErrMissing when the table is empty.
	LatestYear(ctx context.Context) (int, error)
}

// AdminInterface covers schema lifecycle and bulk loading,
// used by the ETL pipeline and the admin API.
type AdminInterface interface {
	// Init creates the tracts table and its indexes if absent.
	Init(ctx context.Context) error

	// Truncate removes every tract record. The schema is kept.
	Truncate(ctx context.Context) error

	// Insert stores the given tracts. Ids are assigned by the database.
	Insert(ctx context.Context, tracts []Tract) (int64, error)

	// Snapshot writes a consistent copy of the database to destPath.
	//
	// Returns ErrUnsupported for backends without snapshot support.
	Snapshot(ctx context.Context, destPath string) error

	// Restore replaces every tract record with the contents of the
	// snapshot database file at srcPath.
	//
	// Returns ErrUnsupported for backends without snapshot support.
	Restore(ctx context.Context, srcPath string) error
}

// IGSDatabase is the aggregate access point to the tract store.
type IGSDatabase interface {
	Tracts() TractInterface
	Admin() AdminInterface
	Close() error
}
