package etl

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	kdb "github.com/atldata/igs/pkg/db"
)

// Pipeline runs the full ETL sequence: clean the raw CSV, persist the
// cleaned copy, load the store, then cross-check the loaded table.
type Pipeline struct {
	// RawPath is the vendor CSV export.
	RawPath string

	// CleanedPath is where the cleaned CSV is written.
	CleanedPath string

	// Database is the target store.
	Database kdb.IGSDatabase

	// BatchSize for bulk inserts; 0 takes the loader default.
	BatchSize int

	Logger *log.Logger
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	RecordsCleaned int
	RecordsLoaded  int64
	RecordsSkipped int
	Warnings       []string
	Duration       time.Duration
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

// Run executes the pipeline. The returned stats are valid also when err is
// not nil, describing how far the run got.
func (p *Pipeline) Run(ctx context.Context) (RunStats, error) {
	logger := p.logger()
	stats := RunStats{}
	begin := time.Now()
	defer func() { stats.Duration = time.Since(begin) }()

	// clean
	logger.Printf("cleaning %s", p.RawPath)
	raw, err := os.Open(p.RawPath)
	if err != nil {
		return stats, fmt.Errorf("open raw data: %w", err)
	}
	cleaner := NewCleaner(WithCleanerLogger(logger))
	ds, err := cleaner.Clean(raw)
	raw.Close()
	if err != nil {
		return stats, fmt.Errorf("clean: %w", err)
	}

	warnings, err := ds.Validate()
	stats.Warnings = warnings
	for _, w := range warnings {
		logger.Printf("validation: %s", w)
	}
	if err != nil {
		return stats, fmt.Errorf("validate: %w", err)
	}
	stats.RecordsCleaned = len(ds.Records)

	if p.CleanedPath != "" {
		if err := writeCleanedFile(p.CleanedPath, ds); err != nil {
			return stats, fmt.Errorf("write cleaned data: %w", err)
		}
		logger.Printf("wrote %d cleaned records to %s", len(ds.Records), p.CleanedPath)
	}

	// load
	loader := NewLoader(
		p.Database.Admin(),
		WithBatchSize(p.BatchSize),
		WithLoaderLogger(logger),
	)
	loaded, err := loader.Load(ctx, ds)
	stats.RecordsLoaded = loaded.Inserted
	stats.RecordsSkipped = loaded.Skipped
	if err != nil {
		return stats, fmt.Errorf("load: %w", err)
	}

	// cross-check the loaded table
	if err := p.verify(ctx, stats); err != nil {
		return stats, fmt.Errorf("verify: %w", err)
	}

	logger.Printf(
		"pipeline done: %d cleaned, %d loaded, %d skipped in %v",
		stats.RecordsCleaned, stats.RecordsLoaded, stats.RecordsSkipped, time.Since(begin),
	)
	return stats, nil
}

func (p *Pipeline) verify(ctx context.Context, stats RunStats) error {
	logger := p.logger()
	tracts := p.Database.Tracts()

	total, err := tracts.Count(ctx, kdb.TractFilter{})
	if err != nil {
		return err
	}
	if int64(total) != stats.RecordsLoaded {
		return fmt.Errorf("loaded %d records but table holds %d", stats.RecordsLoaded, total)
	}

	states, err := tracts.States(ctx)
	if err != nil {
		return err
	}
	logger.Printf("table holds %d records across %d states", total, len(states))
	return nil
}

func writeCleanedFile(path string, ds *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ds.WriteCSV(f)
}
