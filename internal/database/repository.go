package database

import (
	"context"
	"fmt"
	"time"

	"go-glassdoor-harvester/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scrape_runs (
	id          UUID PRIMARY KEY,
	job_title   TEXT NOT NULL,
	location    TEXT NOT NULL,
	target      INTEGER NOT NULL,
	written     INTEGER NOT NULL DEFAULT 0,
	pages       INTEGER NOT NULL DEFAULT 0,
	reloads     INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	output_path TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
)`

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 2
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	// Poolers in transaction mode (Supabase, PgBouncer) reject cached prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Ping to ensure connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// EnsureSchema creates the scrape_runs table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create scrape_runs: %w", err)
	}
	return nil
}

// ---------------- RUN OPERATIONS ----------------

// StartRun inserts a run in RUNNING state.
func (r *Repository) StartRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO scrape_runs (id, job_title, location, target, status, output_path, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		run.ID.String(), run.JobTitle, run.Location, run.Target, string(run.Status), run.OutputPath, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run started with StartRun.
func (r *Repository) FinishRun(ctx context.Context, run *models.Run) error {
	query := `
		UPDATE scrape_runs
		SET written = $2, pages = $3, reloads = $4, status = $5, reason = $6, finished_at = $7
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		run.ID.String(), run.Written, run.Pages, run.Reloads, string(run.Status), run.Reason, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	query := `
		SELECT id, job_title, location, target, written, pages, reloads, status, reason, output_path, started_at, finished_at
		FROM scrape_runs
		ORDER BY started_at DESC
		LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var (
			run    models.Run
			id     string
			status string
		)
		if err := rows.Scan(&id, &run.JobTitle, &run.Location, &run.Target, &run.Written, &run.Pages,
			&run.Reloads, &status, &run.Reason, &run.OutputPath, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad run id %q: %w", id, err)
		}
		run.Status = models.RunStatus(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
