package etl

import (
	"encoding/csv"
	"io"
	"strconv"

	kdb "github.com/atldata/igs/pkg/db"
)

// WriteCSV writes the cleaned dataset: one header row, then one row per
// record in the cleaned column order. Nulls are written as empty fields.
func (d *Dataset) WriteCSV(w io.Writer) error {
	out := csv.NewWriter(w)

	if err := out.Write(d.Columns); err != nil {
		return err
	}

	row := make([]string, len(d.Columns))
	for _, rec := range d.Records {
		for i, col := range d.Columns {
			row[i] = renderField(rec, col)
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}

	out.Flush()
	return out.Error()
}

func renderField(rec Record, column string) string {
	switch column {
	case kdb.HeaderOpportunityZone:
		if rec.OpportunityZone == nil {
			return ""
		}
		return *rec.OpportunityZone
	case kdb.HeaderFips:
		return rec.Fips
	case kdb.HeaderCounty:
		return rec.County
	case kdb.HeaderState:
		return rec.State
	case kdb.HeaderYear:
		if rec.Year == nil {
			return ""
		}
		return strconv.Itoa(*rec.Year)
	}

	m, ok := kdb.LookupMetricByHeader(column)
	if !ok {
		return ""
	}
	v := rec.Metrics[m.Name]
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
