package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	kdb "github.com/atldata/igs/pkg/db"
)

type adminStore struct { // implements kdb.AdminInterface
	db      *sql.DB
	dialect Dialect
}

func (s *adminStore) Init(ctx context.Context) error {
	for _, ddl := range s.dialect.CreateTableDDL() {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *adminStore) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM "tracts"`); err != nil {
		return classify(err)
	}
	return nil
}

// insertColumns is the writable column list of a tract row, identity
// columns followed by metric columns in registry order.
func insertColumns() []string {
	cols := []string{
		`"is_opportunity_zone"`, `"census_tract_fips"`, `"county"`, `"state"`, `"year"`,
	}
	for _, m := range kdb.Metrics {
		cols = append(cols, `"`+m.Name+`"`)
	}
	return cols
}

func insertStatement(d Dialect) string {
	cols := insertColumns()
	return fmt.Sprintf(
		`INSERT INTO "tracts" (%s) VALUES (%s)`,
		strings.Join(cols, ", "),
		d.Placeholders(1, len(cols)),
	)
}

func insertArgs(t kdb.Tract) []any {
	args := []any{t.OpportunityZone, t.Fips, t.County, t.State, t.Year}
	for _, m := range kdb.Metrics {
		args = append(args, t.Metric(m.Name))
	}
	return args
}

func (s *adminStore) Insert(ctx context.Context, tracts []kdb.Tract) (int64, error) {
	if len(tracts) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertStatement(s.dialect))
	if err != nil {
		return 0, classify(err)
	}
	defer stmt.Close()

	var inserted int64
	for _, t := range tracts {
		if _, err := stmt.ExecContext(ctx, insertArgs(t)...); err != nil {
			return 0, fmt.Errorf("insert tract %s/%d: %w", t.Fips, t.Year, classify(err))
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *adminStore) Snapshot(ctx context.Context, destPath string) error {
	if s.dialect.Name != SQLite.Name {
		return fmt.Errorf("%w: snapshot requires the sqlite backend", kdb.ErrUnsupported)
	}

	// VACUUM INTO takes a filename expression; bind parameters are not
	// accepted there, so the path is quoted as a SQL string literal.
	quoted := strings.ReplaceAll(destPath, "'", "''")
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return classify(err)
	}
	return nil
}

func (s *adminStore) Restore(ctx context.Context, srcPath string) error {
	if s.dialect.Name != SQLite.Name {
		return fmt.Errorf("%w: restore requires the sqlite backend", kdb.ErrUnsupported)
	}
	if err := s.Init(ctx); err != nil {
		return err
	}

	// ATTACH and the copy must share one connection.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// ATTACH takes a filename expression, quoted the same way as VACUUM INTO.
	quoted := strings.ReplaceAll(srcPath, "'", "''")
	if _, err := conn.ExecContext(ctx, fmt.Sprintf(`ATTACH DATABASE '%s' AS "restored"`, quoted)); err != nil {
		return classify(err)
	}
	defer conn.ExecContext(ctx, `DETACH DATABASE "restored"`)

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM "tracts"`); err != nil {
		return classify(err)
	}
	cols := strings.Join(insertColumns(), ", ")
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO "tracts" (%s) SELECT %s FROM "restored"."tracts"`, cols, cols,
	)); err != nil {
		return classify(err)
	}
	return tx.Commit()
}
