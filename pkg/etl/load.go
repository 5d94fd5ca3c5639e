package etl

import (
	"context"
	"fmt"
	"log"

	kdb "github.com/atldata/igs/pkg/db"
)

// Loader bulk-inserts a cleaned dataset into the tract store.
type Loader struct {
	admin     kdb.AdminInterface
	batchSize int
	logger    *log.Logger
}

type LoaderOption func(*Loader) *Loader

func WithBatchSize(n int) LoaderOption {
	return func(l *Loader) *Loader {
		if n > 0 {
			l.batchSize = n
		}
		return l
	}
}

func WithLoaderLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) *Loader {
		l.logger = logger
		return l
	}
}

func NewLoader(admin kdb.AdminInterface, options ...LoaderOption) *Loader {
	l := &Loader{admin: admin, batchSize: 500, logger: log.Default()}
	for _, opt := range options {
		l = opt(l)
	}
	return l
}

// LoadStats reports what one load did.
type LoadStats struct {
	Inserted int64

	// Skipped counts records lacking a FIPS code or year,
	// which the tracts table cannot hold.
	Skipped int
}

// Load replaces the table content with the dataset.
//
// The schema is created when absent and existing rows are removed first;
// a load is a full refresh, never an increment.
func (l *Loader) Load(ctx context.Context, ds *Dataset) (LoadStats, error) {
	stats := LoadStats{}

	if err := l.admin.Init(ctx); err != nil {
		return stats, fmt.Errorf("initialize schema: %w", err)
	}
	if err := l.admin.Truncate(ctx); err != nil {
		return stats, fmt.Errorf("truncate tracts: %w", err)
	}

	batch := make([]kdb.Tract, 0, l.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := l.admin.Insert(ctx, batch)
		stats.Inserted += n
		batch = batch[:0]
		return err
	}

	for _, rec := range ds.Records {
		if rec.Fips == "" || rec.Year == nil {
			stats.Skipped++
			continue
		}
		batch = append(batch, rec.Tract())
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return stats, fmt.Errorf("insert records: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return stats, fmt.Errorf("insert records: %w", err)
	}

	if stats.Skipped > 0 {
		l.logger.Printf("skipped %d records lacking FIPS code or year", stats.Skipped)
	}
	l.logger.Printf("inserted %d records", stats.Inserted)
	return stats, nil
}
