package sql_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	kdb "github.com/atldata/igs/pkg/db"
	kdbsql "github.com/atldata/igs/pkg/db/sql"
	"github.com/atldata/igs/pkg/utils/cmp"
	"github.com/atldata/igs/pkg/utils/pointer"
	"github.com/atldata/igs/pkg/utils/try"
)

// openTestDB opens a fresh SQLite store in a temp directory.
func openTestDB(t *testing.T) kdb.IGSDatabase {
	t.Helper()
	db := try.To(
		kdbsql.New(context.Background(), filepath.Join(t.TempDir(), "igs.db")),
	).OrFatal(t)
	t.Cleanup(func() { db.Close() })
	return db
}

func tract(fips, county, state string, year int, igs *float64) kdb.Tract {
	tr := kdb.Tract{
		OpportunityZone: pointer.Ref("No"),
		Fips:            fips,
		County:          county,
		State:           state,
		Year:            year,
	}
	tr.SetMetric("inclusive_growth_score", igs)
	return tr
}

// fixture is six rows over two states, three tracts, two years.
func fixture() []kdb.Tract {
	return []kdb.Tract{
		tract("13121011100", "Fulton County", "Georgia", 2019, pointer.Ref(62.5)),
		tract("13121011100", "Fulton County", "Georgia", 2020, pointer.Ref(64.0)),
		tract("13089021200", "DeKalb County", "Georgia", 2019, pointer.Ref(48.0)),
		tract("13089021200", "DeKalb County", "Georgia", 2020, nil),
		tract("37063001800", "Durham County", "North Carolina", 2019, pointer.Ref(71.0)),
		tract("37063001800", "Durham County", "North Carolina", 2020, pointer.Ref(73.5)),
	}
}

func loadFixture(t *testing.T, db kdb.IGSDatabase) {
	t.Helper()
	ctx := context.Background()
	if err := db.Admin().Init(ctx); err != nil {
		t.Fatal(err)
	}
	n := try.To(db.Admin().Insert(ctx, fixture())).OrFatal(t)
	if n != 6 {
		t.Fatalf("inserted %d rows, want 6", n)
	}
}

func TestDatabase_BeforeInit(t *testing.T) {
	t.Run("queries before init should report the store as not initialized", func(t *testing.T) {
		db := openTestDB(t)
		_, err := db.Tracts().Count(context.Background(), kdb.TractFilter{})
		if !errors.Is(err, kdb.ErrNotInitialized) {
			t.Errorf("error: got %v, want ErrNotInitialized", err)
		}
	})
}

func TestTractStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Count should honor the filter and ignore pagination", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)
		tracts := db.Tracts()

		if got := try.To(tracts.Count(ctx, kdb.TractFilter{})).OrFatal(t); got != 6 {
			t.Errorf("total: got %d, want 6", got)
		}
		got := try.To(tracts.Count(ctx, kdb.TractFilter{State: "Georgia", Limit: 1})).OrFatal(t)
		if got != 4 {
			t.Errorf("georgia: got %d, want 4", got)
		}
		got = try.To(tracts.Count(ctx, kdb.TractFilter{County: "DeKalb County", Year: pointer.Ref(2019)})).OrFatal(t)
		if got != 1 {
			t.Errorf("dekalb 2019: got %d, want 1", got)
		}
	})

	t.Run("Find should order by identity and paginate", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)
		tracts := db.Tracts()

		all := try.To(tracts.Find(ctx, kdb.TractFilter{})).OrFatal(t)
		if len(all) != 6 {
			t.Fatalf("found %d tracts, want 6", len(all))
		}
		if all[0].County != "DeKalb County" || all[0].Year != 2019 {
			t.Errorf("first row: got %s/%d", all[0].County, all[0].Year)
		}
		if !cmp.PEq(all[1].Metric("inclusive_growth_score"), (*float64)(nil)) {
			t.Errorf("null metric should scan as nil: got %v", all[1].Metric("inclusive_growth_score"))
		}

		page := try.To(tracts.Find(ctx, kdb.TractFilter{Limit: 2, Offset: 4})).OrFatal(t)
		if len(page) != 2 {
			t.Fatalf("page: got %d tracts, want 2", len(page))
		}
		if page[0].State != "North Carolina" {
			t.Errorf("page start: got %s", page[0].State)
		}
	})

	t.Run("an offset without a limit should skip rows, not fail", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)
		tracts := db.Tracts()

		rest := try.To(tracts.Find(ctx, kdb.TractFilter{Offset: 4})).OrFatal(t)
		if len(rest) != 2 {
			t.Fatalf("rest: got %d tracts, want 2", len(rest))
		}
		if rest[0].State != "North Carolina" {
			t.Errorf("rest start: got %s", rest[0].State)
		}

		values := try.To(tracts.MetricValues(
			ctx, "inclusive_growth_score", kdb.TractFilter{Offset: 1},
		)).OrFatal(t)
		if len(values) != 5 {
			t.Errorf("values: got %d, want 5", len(values))
		}
	})

	t.Run("GetByFips should return years in order, or ErrMissing", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)
		tracts := db.Tracts()

		years := try.To(tracts.GetByFips(ctx, "13121011100", nil)).OrFatal(t)
		if len(years) != 2 || years[0].Year != 2019 || years[1].Year != 2020 {
			t.Errorf("years: got %+v", years)
		}
		if !cmp.PEq(years[0].OpportunityZone, pointer.Ref("No")) {
			t.Errorf("opportunity zone: got %v", years[0].OpportunityZone)
		}

		one := try.To(tracts.GetByFips(ctx, "13121011100", pointer.Ref(2020))).OrFatal(t)
		if len(one) != 1 || one[0].Year != 2020 {
			t.Errorf("single year: got %+v", one)
		}

		if _, err := tracts.GetByFips(ctx, "99999999999", nil); !errors.Is(err, kdb.ErrMissing) {
			t.Errorf("error: got %v, want ErrMissing", err)
		}
	})

	t.Run("States should count distinct tracts per state", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)

		states := try.To(db.Tracts().States(ctx)).OrFatal(t)
		want := []kdb.StateCount{
			{State: "Georgia", Tracts: 2},
			{State: "North Carolina", Tracts: 1},
		}
		if !cmp.SliceEq(states, want) {
			t.Errorf("states: got %v, want %v", states, want)
		}
	})

	t.Run("MetricValues should include nulls and reject unknown metrics", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)
		tracts := db.Tracts()

		values := try.To(tracts.MetricValues(
			ctx, "inclusive_growth_score", kdb.TractFilter{State: "Georgia", Year: pointer.Ref(2020)},
		)).OrFatal(t)
		if len(values) != 2 {
			t.Fatalf("values: got %d, want 2", len(values))
		}
		if values[0].Fips != "13089021200" || values[0].Value != nil {
			t.Errorf("first value: got %+v", values[0])
		}
		if !cmp.PEq(values[1].Value, pointer.Ref(64.0)) {
			t.Errorf("second value: got %v", values[1].Value)
		}

		if _, err := tracts.MetricValues(ctx, "no_such_metric", kdb.TractFilter{}); !errors.Is(err, kdb.ErrUnknownMetric) {
			t.Errorf("error: got %v, want ErrUnknownMetric", err)
		}
	})

	t.Run("MetricPairs should drop rows where either side is null", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)

		pairs := try.To(db.Tracts().MetricPairs(
			ctx, "inclusive_growth_score", "inclusive_growth_score", kdb.TractFilter{State: "Georgia"},
		)).OrFatal(t)
		// one Georgia row has a null score and must not appear
		if len(pairs) != 3 {
			t.Errorf("pairs: got %d, want 3", len(pairs))
		}
		for _, p := range pairs {
			if p.X != p.Y {
				t.Errorf("self-pair mismatch: %+v", p)
			}
		}
	})

	t.Run("LatestYear should be the max year, or ErrMissing when empty", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)

		if got := try.To(db.Tracts().LatestYear(ctx)).OrFatal(t); got != 2020 {
			t.Errorf("latest year: got %d, want 2020", got)
		}

		if err := db.Admin().Truncate(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := db.Tracts().LatestYear(ctx); !errors.Is(err, kdb.ErrMissing) {
			t.Errorf("error: got %v, want ErrMissing", err)
		}
	})
}

func TestAdminStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Init should be idempotent", func(t *testing.T) {
		db := openTestDB(t)
		if err := db.Admin().Init(ctx); err != nil {
			t.Fatal(err)
		}
		if err := db.Admin().Init(ctx); err != nil {
			t.Errorf("second init: %v", err)
		}
	})

	t.Run("Truncate should keep the schema", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)

		if err := db.Admin().Truncate(ctx); err != nil {
			t.Fatal(err)
		}
		if got := try.To(db.Tracts().Count(ctx, kdb.TractFilter{})).OrFatal(t); got != 0 {
			t.Errorf("count after truncate: got %d, want 0", got)
		}
	})

	t.Run("Insert of nothing should be a no-op", func(t *testing.T) {
		db := openTestDB(t)
		if err := db.Admin().Init(ctx); err != nil {
			t.Fatal(err)
		}
		if n := try.To(db.Admin().Insert(ctx, nil)).OrFatal(t); n != 0 {
			t.Errorf("inserted: got %d, want 0", n)
		}
	})

	t.Run("Snapshot should write an openable copy", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)

		dest := filepath.Join(t.TempDir(), "snapshot.db")
		if err := db.Admin().Snapshot(ctx, dest); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(dest); err != nil {
			t.Fatalf("snapshot file: %v", err)
		}

		copied := try.To(kdbsql.New(ctx, dest)).OrFatal(t)
		defer copied.Close()
		if got := try.To(copied.Tracts().Count(ctx, kdb.TractFilter{})).OrFatal(t); got != 6 {
			t.Errorf("snapshot count: got %d, want 6", got)
		}
	})

	t.Run("Restore should bring a snapshot back, replacing later edits", func(t *testing.T) {
		db := openTestDB(t)
		loadFixture(t, db)

		snapshot := filepath.Join(t.TempDir(), "snapshot.db")
		if err := db.Admin().Snapshot(ctx, snapshot); err != nil {
			t.Fatal(err)
		}

		// diverge from the snapshot
		if err := db.Admin().Truncate(ctx); err != nil {
			t.Fatal(err)
		}
		_ = try.To(db.Admin().Insert(ctx, []kdb.Tract{
			tract("99999999999", "Nowhere County", "Ohio", 2024, pointer.Ref(1.0)),
		})).OrFatal(t)

		if err := db.Admin().Restore(ctx, snapshot); err != nil {
			t.Fatal(err)
		}

		if got := try.To(db.Tracts().Count(ctx, kdb.TractFilter{})).OrFatal(t); got != 6 {
			t.Errorf("count after restore: got %d, want 6", got)
		}
		if _, err := db.Tracts().GetByFips(ctx, "99999999999", nil); !errors.Is(err, kdb.ErrMissing) {
			t.Errorf("diverged row should be gone: got %v, want ErrMissing", err)
		}
		years := try.To(db.Tracts().GetByFips(ctx, "13121011100", nil)).OrFatal(t)
		if len(years) != 2 || !cmp.PEq(years[1].Metric("inclusive_growth_score"), pointer.Ref(64.0)) {
			t.Errorf("restored rows: got %+v", years)
		}
	})
}
