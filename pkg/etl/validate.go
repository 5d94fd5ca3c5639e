package etl

import (
	"fmt"
	"strconv"

	kdb "github.com/atldata/igs/pkg/db"
)

// expected year coverage of the dataset.
const (
	yearMin = 2017
	yearMax = 2024
)

// requiredColumns must survive cleaning for the dataset to be loadable.
var requiredColumns = []string{
	kdb.HeaderFips,
	kdb.HeaderCounty,
	kdb.HeaderState,
	kdb.HeaderYear,
	"Inclusive Growth Score",
}

// Validate checks the cleaned dataset.
//
// Fatal problems (missing required columns, no records) come back as the
// error; recoverable oddities (years out of range, duplicated tract-years)
// come back as warnings.
func (d *Dataset) Validate() (warnings []string, err error) {
	have := map[string]bool{}
	for _, c := range d.Columns {
		have[c] = true
	}
	for _, required := range requiredColumns {
		if !have[required] {
			return warnings, fmt.Errorf("required column missing: %s", required)
		}
	}

	if len(d.Records) == 0 {
		return warnings, fmt.Errorf("no data records found")
	}

	lo, hi := 0, 0
	for _, rec := range d.Records {
		if rec.Year == nil {
			continue
		}
		if lo == 0 || *rec.Year < lo {
			lo = *rec.Year
		}
		if *rec.Year > hi {
			hi = *rec.Year
		}
	}
	if lo != 0 && (lo < yearMin || hi > yearMax) {
		warnings = append(warnings, fmt.Sprintf(
			"year range %d-%d outside expected %d-%d", lo, hi, yearMin, yearMax,
		))
	}

	seen := map[string]int{}
	for _, rec := range d.Records {
		if rec.Fips == "" || rec.Year == nil {
			continue
		}
		seen[rec.Fips+"/"+strconv.Itoa(*rec.Year)]++
	}
	duplicates := 0
	for _, n := range seen {
		if n > 1 {
			duplicates += n
		}
	}
	if duplicates > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"found %d records sharing a tract and year", duplicates,
		))
	}

	return warnings, nil
}
