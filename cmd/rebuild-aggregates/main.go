// rebuild-aggregates rebuilds the region_aggregates counters from the
// submissions ledger. The aggregate table is incremented online and never
// decremented, so after bulk submission deletions or a bad migration the two
// ledgers drift; this tool makes the aggregates exact again.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Compute + report only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to perform destructive replace")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key (e.g., 424242). 0 = disabled")
)

type Counts struct {
	Submissions int64
	Aggregates  int64
}

type aggregateRow struct {
	crop, cropKey         string
	state, stateKey       string
	district, districtKey string
	season, seasonKey     string
	cycle                 int
	totalProduction       float64
	submissionsCount      int64
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	rows, err := computeAggregates(ctx, db)
	if err != nil {
		fatalf("compute aggregates: %v", err)
	}
	fmt.Printf("Computed %d aggregate keys from submissions\n", len(rows))

	if *dryRun {
		printPlan(rows)
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	// Optional advisory lock to avoid concurrent runs
	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	before, err := countAll(ctx, tx)
	if err != nil {
		fatalf("pre-count: %v", err)
	}
	fmt.Printf("Before: submissions=%d aggregates=%d\n", before.Submissions, before.Aggregates)

	// Destructive replace: drop all counters, reinsert exact sums.
	if _, err := tx.ExecContext(ctx, `DELETE FROM region_aggregates`); err != nil {
		fatalf("wipe aggregates: %v", err)
	}
	if err := insertAll(ctx, tx, rows); err != nil {
		fatalf("insert aggregates: %v", err)
	}

	after, err := countAll(ctx, tx)
	if err != nil {
		fatalf("post-count: %v", err)
	}
	fmt.Printf("After:  submissions=%d aggregates=%d\n", after.Submissions, after.Aggregates)

	// sanity: every distinct submission key has exactly one aggregate row
	if after.Aggregates != int64(len(rows)) {
		fatalf("sanity check failed: aggregates=%d computed=%d", after.Aggregates, len(rows))
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Rebuild complete ✅")
}

func computeAggregates(ctx context.Context, db *sql.DB) ([]aggregateRow, error) {
	// max(display-name) picks one stable representative per normalized key.
	q := `SELECT max(crop), crop_key, max(state), state_key, max(district), district_key,
	             max(season), season_key, cycle,
	             COALESCE(SUM(total_production), 0), COUNT(*)
	      FROM submissions
	      GROUP BY crop_key, state_key, district_key, season_key, cycle
	      ORDER BY crop_key, state_key, district_key, season_key, cycle`
	rs, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []aggregateRow
	for rs.Next() {
		var r aggregateRow
		if err := rs.Scan(&r.crop, &r.cropKey, &r.state, &r.stateKey, &r.district, &r.districtKey,
			&r.season, &r.seasonKey, &r.cycle, &r.totalProduction, &r.submissionsCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

func printPlan(rows []aggregateRow) {
	var production float64
	var submissions int64
	for _, r := range rows {
		production += r.totalProduction
		submissions += r.submissionsCount
	}
	fmt.Println("Plan preview:")
	fmt.Printf("  Aggregate rows to insert: %d\n", len(rows))
	fmt.Printf("  Total production covered: %.2f\n", production)
	fmt.Printf("  Total submissions covered: %d\n", submissions)
	fmt.Println("  Tables affected (destructive): region_aggregates")
}

func countAll(ctx context.Context, tx *sql.Tx) (Counts, error) {
	var c Counts
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM submissions`).Scan(&c.Submissions); err != nil {
		return c, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM region_aggregates`).Scan(&c.Aggregates); err != nil {
		return c, err
	}
	return c, nil
}

func insertAll(ctx context.Context, tx *sql.Tx, rows []aggregateRow) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO region_aggregates
		(id, crop, crop_key, state, state_key, district, district_key,
		 season, season_key, cycle, total_production, submissions_count, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, uuid.New(), r.crop, r.cropKey, r.state, r.stateKey,
			r.district, r.districtKey, r.season, r.seasonKey, r.cycle,
			r.totalProduction, r.submissionsCount, now); err != nil {
			return fmt.Errorf("insert aggregate %s/%s/%s: %w", r.cropKey, r.districtKey, r.seasonKey, err)
		}
	}
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
