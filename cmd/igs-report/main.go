package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/MetalBlueberry/go-plotly/offline"

	"github.com/atldata/igs/pkg/analytics"
	kdb "github.com/atldata/igs/pkg/db"
	kdbsql "github.com/atldata/igs/pkg/db/sql"
)

// igs-report renders a set of offline HTML charts from the tract store,
// for sharing without running the dashboard.
func main() {

	dburi := flag.String("database", "./data/igs.db", "database path or postgres:// URI")
	state := flag.String("state", "", "restrict the report to one state")
	metric := flag.String("metric", "inclusive_growth_score", "metric to report on")
	outDir := flag.String("out", "./report", "output directory")
	flag.Parse()

	ctx := context.Background()

	db, err := kdbsql.New(ctx, *dburi)
	if err != nil {
		log.Fatalf("can not open database %s: %s", *dburi, err)
	}
	defer db.Close()
	tracts := db.Tracts()

	if !kdb.IsMetric(*metric) {
		log.Fatalf("unknown metric %q", *metric)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("can not create %s: %s", *outDir, err)
	}

	latest, err := tracts.LatestYear(ctx)
	if err != nil {
		log.Fatalf("database holds no data; run igs-etl first: %s", err)
	}

	write := func(name string, fig *grob.Fig) {
		path := filepath.Join(*outDir, name)
		offline.ToHtml(fig, path)
		log.Printf("wrote %s", path)
	}

	write("trend.html", trendFig(ctx, tracts, *metric, *state))
	write("distribution.html", distributionFig(ctx, tracts, *metric, *state, latest))
	write("states.html", statesFig(ctx, tracts))
	write("correlation.html", correlationFig(ctx, tracts, *metric, *state))
}

// trendFig is the yearly mean of the metric as a line chart.
func trendFig(ctx context.Context, tracts kdb.TractInterface, metric, state string) *grob.Fig {
	values, err := tracts.MetricValues(ctx, metric, kdb.TractFilter{State: state})
	if err != nil {
		log.Fatalf("can not read %s: %s", metric, err)
	}

	byYear := map[int][]float64{}
	for _, v := range values {
		if v.Value != nil {
			byYear[v.Year] = append(byYear[v.Year], *v.Value)
		}
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	means := make([]float64, len(years))
	for i, y := range years {
		s, _ := analytics.Describe(byYear[y])
		means[i] = s.Mean
	}

	fig := &grob.Fig{Layout: &grob.Layout{
		Title: &grob.LayoutTitle{Text: kdb.DisplayName(metric) + " over time"},
	}}
	fig.AddTraces(&grob.Scatter{
		Name: kdb.DisplayName(metric),
		X:    years,
		Y:    means,
		Mode: grob.ScatterModeLines,
	})
	return fig
}

// distributionFig is the histogram of the metric in the latest year.
func distributionFig(ctx context.Context, tracts kdb.TractInterface, metric, state string, year int) *grob.Fig {
	values, err := tracts.MetricValues(ctx, metric, kdb.TractFilter{State: state, Year: &year})
	if err != nil {
		log.Fatalf("can not read %s: %s", metric, err)
	}

	var sample []float64
	for _, v := range values {
		if v.Value != nil {
			sample = append(sample, *v.Value)
		}
	}

	fig := &grob.Fig{Layout: &grob.Layout{
		Title: &grob.LayoutTitle{Text: kdb.DisplayName(metric) + " distribution"},
	}}
	fig.AddTraces(&grob.Histogram{X: sample})
	return fig
}

// statesFig is the tract count per state as a bar chart.
func statesFig(ctx context.Context, tracts kdb.TractInterface) *grob.Fig {
	states, err := tracts.States(ctx)
	if err != nil {
		log.Fatalf("can not read states: %s", err)
	}

	names := make([]string, len(states))
	counts := make([]int, len(states))
	for i, s := range states {
		names[i] = s.State
		counts[i] = s.Tracts
	}

	fig := &grob.Fig{Layout: &grob.Layout{
		Title: &grob.LayoutTitle{Text: "Census tracts per state"},
	}}
	fig.AddTraces(&grob.Bar{X: names, Y: counts})
	return fig
}

// correlationFig scatters the metric against the overall growth score.
func correlationFig(ctx context.Context, tracts kdb.TractInterface, metric, state string) *grob.Fig {
	other := "inclusive_growth_score"
	if metric == other {
		other = "internet_access_score"
	}

	pairs, err := tracts.MetricPairs(ctx, metric, other, kdb.TractFilter{State: state})
	if err != nil {
		log.Fatalf("can not read pairs: %s", err)
	}

	xs := make([]float64, len(pairs))
	ys := make([]float64, len(pairs))
	for i, p := range pairs {
		xs[i], ys[i] = p.X, p.Y
	}
	r := analytics.Pearson(xs, ys)

	fig := &grob.Fig{Layout: &grob.Layout{
		Title: &grob.LayoutTitle{
			Text: kdb.DisplayName(metric) + " vs " + kdb.DisplayName(other),
		},
		Xaxis: &grob.LayoutXaxis{Title: &grob.LayoutXaxisTitle{
			Text: kdb.DisplayName(metric),
		}},
		Yaxis: &grob.LayoutYaxis{Title: &grob.LayoutYaxisTitle{
			Text: kdb.DisplayName(other),
		}},
	}}
	fig.AddTraces(&grob.Scatter{
		Name: "r = " + formatR(r),
		X:    xs,
		Y:    ys,
		Mode: grob.ScatterModeMarkers,
	})
	return fig
}

func formatR(r float64) string {
	return strconv.FormatFloat(r, 'f', 3, 64)
}
