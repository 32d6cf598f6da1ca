package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"stopfrisk/models"
)

// PostgresWriter archives the share table of each report run.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return newPostgresWriter(db, 10, 2*time.Second)
}

func newPostgresWriter(db *sql.DB, pings int, wait time.Duration) (*PostgresWriter, error) {
	var err error
	for i := 0; i < pings; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(wait)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS share_runs (
			id         SERIAL PRIMARY KEY,
			label_a    TEXT        NOT NULL,
			label_b    TEXT        NOT NULL,
			stop_years INTEGER     NOT NULL DEFAULT 0,
			warnings   INTEGER     NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS category_shares (
			run_id   INTEGER          NOT NULL REFERENCES share_runs(id) ON DELETE CASCADE,
			category TEXT             NOT NULL,
			total_a  DOUBLE PRECISION NOT NULL,
			total_b  DOUBLE PRECISION NOT NULL,
			share_a  DOUBLE PRECISION NOT NULL,
			share_b  DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, category)
		);
	`)
	return err
}

// WriteReport records a run and its share rows in one transaction.
func (pw *PostgresWriter) WriteReport(r *models.Report) error {
	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRow(`
		INSERT INTO share_runs (label_a, label_b, stop_years, warnings)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.LabelA, r.LabelB, len(r.Stops.Rows), len(r.Diagnostics)).Scan(&runID)
	if err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	if len(r.Shares) > 0 {
		if err := insertShares(tx, runID, r); err != nil {
			return fmt.Errorf("postgres: insert shares: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertShares(tx *sql.Tx, runID int64, r *models.Report) error {
	totals := make(map[string]models.JoinedRecord, len(r.Joined))
	for _, j := range r.Joined {
		totals[j.Category] = j
	}

	valueStrings := make([]string, 0, len(r.Shares))
	valueArgs := make([]interface{}, 0, len(r.Shares)*6)
	for idx, s := range r.Shares {
		base := idx * 6
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
		j := totals[s.Category]
		valueArgs = append(valueArgs, runID, s.Category, j.A, j.B, s.ShareA, s.ShareB)
	}

	query := fmt.Sprintf(`
		INSERT INTO category_shares (run_id, category, total_a, total_b, share_a, share_b)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := tx.Exec(query, valueArgs...)
	return err
}

// FetchLatest returns the share rows of the most recent run, ordered by category.
func (pw *PostgresWriter) FetchLatest() ([]models.ProportionRecord, error) {
	rows, err := pw.db.Query(`
		SELECT category, share_a, share_b
		FROM category_shares
		WHERE run_id = (SELECT MAX(id) FROM share_runs)
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch latest: %w", err)
	}
	defer rows.Close()

	var out []models.ProportionRecord
	for rows.Next() {
		var p models.ProportionRecord
		if err := rows.Scan(&p.Category, &p.ShareA, &p.ShareB); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
