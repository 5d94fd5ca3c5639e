// Package analytics holds the descriptive statistics the insights API is
// built on: summaries, correlation, weighted composite scores, grading and
// trend classification.
package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary is the five-number-ish description of one metric sample.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64

	// StdDev is the sample standard deviation; 0 for samples smaller than 2.
	StdDev float64
}

// Describe summarizes values. ok is false for an empty sample.
func Describe(values []float64) (s Summary, ok bool) {
	if len(values) == 0 {
		return Summary{}, false
	}

	x := make([]float64, len(values))
	copy(x, values)
	sort.Float64s(x)

	s = Summary{
		Count:  len(x),
		Mean:   stat.Mean(x, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, x, nil),
		Min:    x[0],
		Max:    x[len(x)-1],
	}
	if len(x) > 1 {
		s.StdDev = stat.StdDev(x, nil)
	}
	return s, true
}

// Present drops nils from a sample of optional values.
func Present(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Pearson is the Pearson correlation coefficient of the paired samples.
//
// Samples where either variance is zero (or shorter than 2) correlate to 0.
func Pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// WeightedScore averages the present metrics of scores under weights,
// renormalizing over the weight actually present.
//
// Returns nil when none of the weighted metrics is present.
func WeightedScore(scores map[string]*float64, weights map[string]float64) *float64 {
	var weightedSum, totalWeight float64
	for metric, weight := range weights {
		if v := scores[metric]; v != nil {
			weightedSum += *v * weight
			totalWeight += weight
		}
	}
	if totalWeight == 0 {
		return nil
	}
	score := weightedSum / totalWeight
	return &score
}

// Grade converts a 0-100 score to a letter grade. Nil grades to "N/A".
func Grade(score *float64) string {
	switch {
	case score == nil:
		return "N/A"
	case *score >= 80:
		return "A"
	case *score >= 70:
		return "B"
	case *score >= 60:
		return "C"
	case *score >= 50:
		return "D"
	default:
		return "F"
	}
}

// trend classification threshold: changes within ±2 score points are noise.
const trendThreshold = 2.0

// TrendDirection classifies an overall change as improving/declining/stable.
func TrendDirection(change *float64) string {
	switch {
	case change == nil:
		return "stable"
	case *change > trendThreshold:
		return "improving"
	case *change < -trendThreshold:
		return "declining"
	default:
		return "stable"
	}
}

// YearOverYearTrend classifies a period change as improved/declined/stable.
func YearOverYearTrend(change *float64) string {
	switch {
	case change == nil:
		return "stable"
	case *change > trendThreshold:
		return "improved"
	case *change < -trendThreshold:
		return "declined"
	default:
		return "stable"
	}
}

// Disparity measures the spread of a metric across a region.
type Disparity struct {
	// Gap is the max-min spread.
	Gap float64

	// CV is the coefficient of variation, in percent of the mean.
	// 0 when the mean is 0.
	CV float64
}

// DescribeDisparity computes the disparity of values.
// ok is false for samples smaller than 2.
func DescribeDisparity(values []float64) (Disparity, bool) {
	s, present := Describe(values)
	if !present || s.Count < 2 {
		return Disparity{}, false
	}

	d := Disparity{Gap: s.Max - s.Min}
	if s.Mean != 0 {
		d.CV = s.StdDev / s.Mean * 100
	}
	return d, true
}

// PercentileOf is the percentage of values strictly below v.
func PercentileOf(values []float64, v float64) float64 {
	if len(values) == 0 {
		return 0
	}
	below := 0
	for _, x := range values {
		if x < v {
			below++
		}
	}
	return float64(below) / float64(len(values)) * 100
}
