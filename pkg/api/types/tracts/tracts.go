package tracts

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/atldata/igs/pkg/utils/cmp"

	kdb "github.com/atldata/igs/pkg/db"
)

// Detail is one tract-year record.
//
// On the wire it is a flat object: identity fields plus one key per metric,
// nulls kept so clients can tell "missing" from zero.
type Detail struct {
	Id              int
	OpportunityZone *string
	Fips            string
	County          string
	State           string
	Year            int
	Scores          map[string]*float64
}

func (d *Detail) Equal(o *Detail) bool {
	if (d == nil) || (o == nil) {
		return d == nil && o == nil
	}
	return d.Id == o.Id &&
		cmp.PEq(d.OpportunityZone, o.OpportunityZone) &&
		d.Fips == o.Fips &&
		d.County == o.County &&
		d.State == o.State &&
		d.Year == o.Year &&
		cmp.MapEqWith(d.Scores, o.Scores, cmp.PEq[float64])
}

func ComposeDetail(t kdb.Tract) Detail {
	scores := make(map[string]*float64, len(kdb.Metrics))
	for _, m := range kdb.Metrics {
		scores[m.Name] = t.Metric(m.Name)
	}
	return Detail{
		Id:              t.Id,
		OpportunityZone: t.OpportunityZone,
		Fips:            t.Fips,
		County:          t.County,
		State:           t.State,
		Year:            t.Year,
		Scores:          scores,
	}
}

func (d Detail) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, 6+len(d.Scores))
	flat["id"] = d.Id
	flat["is_opportunity_zone"] = d.OpportunityZone
	flat["census_tract_fips"] = d.Fips
	flat["county"] = d.County
	flat["state"] = d.State
	flat["year"] = d.Year
	for name, v := range d.Scores {
		flat[name] = v
	}
	return json.Marshal(flat)
}

func (d *Detail) UnmarshalJSON(bytes []byte) error {
	flat := map[string]json.RawMessage{}
	if err := json.Unmarshal(bytes, &flat); err != nil {
		return err
	}

	take := func(key string, dest any) error {
		raw, ok := flat[key]
		if !ok {
			return fmt.Errorf(`required field missing: %q`, key)
		}
		return json.Unmarshal(raw, dest)
	}

	if err := take("id", &d.Id); err != nil {
		return err
	}
	if err := take("census_tract_fips", &d.Fips); err != nil {
		return err
	}
	if err := take("county", &d.County); err != nil {
		return err
	}
	if err := take("state", &d.State); err != nil {
		return err
	}
	if err := take("year", &d.Year); err != nil {
		return err
	}
	if raw, ok := flat["is_opportunity_zone"]; ok {
		if err := json.Unmarshal(raw, &d.OpportunityZone); err != nil {
			return err
		}
	}

	d.Scores = make(map[string]*float64, len(kdb.Metrics))
	for _, m := range kdb.Metrics {
		if raw, ok := flat[m.Name]; ok {
			var v *float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			d.Scores[m.Name] = v
		}
	}
	return nil
}

// List is a page of tract records.
type List struct {
	Count  int      `json:"count"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	Tracts []Detail `json:"tracts"`
}

// History is every recorded year of one tract.
type History struct {
	Fips    string   `json:"census_tract_fips"`
	Records []Detail `json:"records"`
}

type StateCount struct {
	State  string `json:"state"`
	Tracts int    `json:"tract_count"`
}

type StateList struct {
	States []StateCount `json:"states"`
}

type Metric struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
}

type MetricList struct {
	Metrics []Metric `json:"metrics"`
}

func ComposeMetricList() MetricList {
	metrics := make([]Metric, len(kdb.Metrics))
	for i, m := range kdb.Metrics {
		metrics[i] = Metric{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			Category:    string(m.Category),
		}
	}
	return MetricList{Metrics: metrics}
}

// Statistics is the summary of one metric over the selected tracts.
type Statistics struct {
	Metric      string   `json:"metric"`
	DisplayName string   `json:"display_name"`
	State       string   `json:"state,omitempty"`
	Year        *int     `json:"year,omitempty"`
	Count       int      `json:"count"`
	Mean        *float64 `json:"mean"`
	Median      *float64 `json:"median"`
	Min         *float64 `json:"min"`
	Max         *float64 `json:"max"`
	StdDev      *float64 `json:"std_dev"`
}

// Correlation is the Pearson correlation of two metrics over
// pairwise-complete observations.
type Correlation struct {
	MetricX    string  `json:"metric_x"`
	MetricY    string  `json:"metric_y"`
	PearsonR   float64 `json:"pearson_r"`
	SampleSize int     `json:"sample_size"`
}

// Health is the service health report.
type Health struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	Records    *int   `json:"records,omitempty"`
	LatestYear *int   `json:"latest_year,omitempty"`
}

// QueryYear parses a year query parameter. Empty means nil.
func QueryYear(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	y, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("year must be an integer: %q", raw)
	}
	return &y, nil
}
