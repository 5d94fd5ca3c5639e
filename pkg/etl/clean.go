// Package etl cleans the raw IGS CSV export and loads it into the tract
// store: Extract (read the vendor CSV with its metadata rows), Transform
// (normalize missing values, coerce types, validate) and Load (bulk insert
// through pkg/db).
package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	kdb "github.com/atldata/igs/pkg/db"
)

// Record is one cleaned observation: identity fields typed, metric values
// coerced to float64 or null.
type Record struct {
	OpportunityZone *string
	Fips            string
	County          string
	State           string
	Year            *int
	Metrics         map[string]*float64
}

// Tract converts the record to its storage shape.
// The caller guarantees Year is present.
func (r Record) Tract() kdb.Tract {
	t := kdb.Tract{
		OpportunityZone: r.OpportunityZone,
		Fips:            r.Fips,
		County:          r.County,
		State:           r.State,
		Scores:          r.Metrics,
	}
	if r.Year != nil {
		t.Year = *r.Year
	}
	return t
}

// Dataset is the outcome of cleaning one raw CSV.
type Dataset struct {
	// Columns is the cleaned header, in raw-file order
	// (leading index column and unknown columns removed).
	Columns []string

	Records []Record
}

// Cleaner reads the raw IGS CSV export.
//
// The vendor file carries a category banner in row 0 and an empty row 2;
// row 1 is the real header. A leading unnamed index column may precede the
// data columns.
type Cleaner struct {
	// SkipRows are 0-based row indexes dropped before the header.
	// Defaults to the vendor layout {0, 2}; relative to that, the
	// header is row 1 and data starts at row 3.
	SkipRows map[int]bool

	logger *log.Logger
}

type CleanerOption func(*Cleaner) *Cleaner

// WithCleanerLogger replaces the default logger.
func WithCleanerLogger(l *log.Logger) CleanerOption {
	return func(c *Cleaner) *Cleaner {
		c.logger = l
		return c
	}
}

// WithoutMetadataRows configures the cleaner for a CSV whose first row is
// already the header (a previously cleaned file, for example).
func WithoutMetadataRows() CleanerOption {
	return func(c *Cleaner) *Cleaner {
		c.SkipRows = map[int]bool{}
		return c
	}
}

func NewCleaner(options ...CleanerOption) *Cleaner {
	c := &Cleaner{
		SkipRows: map[int]bool{0: true, 2: true},
		logger:   log.Default(),
	}
	for _, opt := range options {
		c = opt(c)
	}
	return c
}

// missing values the vendor writes into numeric and text columns alike.
func isMissing(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "", "N/A", "NA", "n/a":
		return true
	}
	return false
}

// Clean reads and cleans the raw CSV.
//
// Unknown columns (neither identity nor registry metric) are dropped with a
// warning; uncoercible numeric values become nulls.
func (c *Cleaner) Clean(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var header []string
	var rows [][]string

	for i := 0; ; i++ {
		line, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read raw csv: %w", err)
		}
		if c.SkipRows[i] {
			continue
		}
		if header == nil {
			header = line
			continue
		}
		rows = append(rows, line)
	}
	if header == nil {
		return nil, fmt.Errorf("raw csv has no header row")
	}

	// The export sometimes leads with an unnamed index column.
	if len(header) > 0 && isIndexColumn(header[0]) {
		header = header[1:]
		for i, row := range rows {
			if len(row) > 0 {
				rows[i] = row[1:]
			}
		}
		c.logger.Print("dropped leading index column")
	}

	columns, fields := resolveColumns(header, c.logger)

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, cleanRow(row, fields))
	}

	c.logger.Printf("cleaned %d records with %d columns", len(records), len(columns))
	return &Dataset{Columns: columns, Records: records}, nil
}

func isIndexColumn(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "N/A" || strings.HasPrefix(name, "Unnamed") {
		return true
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// field describes what a cleaned column holds.
type field struct {
	header string
	metric string // registry name; "" for identity columns
}

// resolveColumns classifies raw headers, dropping unknown ones.
func resolveColumns(header []string, logger *log.Logger) ([]string, []field) {
	var columns []string
	var fields []field

	for _, h := range header {
		h = strings.TrimSpace(h)
		switch h {
		case kdb.HeaderOpportunityZone, kdb.HeaderFips, kdb.HeaderCounty, kdb.HeaderState, kdb.HeaderYear:
			columns = append(columns, h)
			fields = append(fields, field{header: h})
			continue
		}
		if m, ok := kdb.LookupMetricByHeader(h); ok {
			columns = append(columns, h)
			fields = append(fields, field{header: h, metric: m.Name})
			continue
		}
		logger.Printf("dropping unknown column: %q", h)
		fields = append(fields, field{}) // keep positions aligned; not emitted
	}
	return columns, fields
}

func cleanRow(row []string, fields []field) Record {
	rec := Record{Metrics: map[string]*float64{}}

	for i, f := range fields {
		if f.header == "" {
			continue // dropped column
		}
		var raw string
		if i < len(row) {
			raw = strings.TrimSpace(row[i])
		}
		if isMissing(raw) {
			if f.metric != "" {
				rec.Metrics[f.metric] = nil
			}
			continue
		}

		switch f.header {
		case kdb.HeaderOpportunityZone:
			v := raw
			rec.OpportunityZone = &v
		case kdb.HeaderFips:
			rec.Fips = raw
		case kdb.HeaderCounty:
			rec.County = raw
		case kdb.HeaderState:
			rec.State = raw
		case kdb.HeaderYear:
			if y, err := strconv.Atoi(raw); err == nil {
				rec.Year = &y
			}
		default: // metric column; coerce, null on failure
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				rec.Metrics[f.metric] = &v
			} else {
				rec.Metrics[f.metric] = nil
			}
		}
	}
	return rec
}
