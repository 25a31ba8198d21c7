package obstacle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesspath/accesspath/internal/lifecycle"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL obstacle repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const obstacleColumns = `
	id, lat, lon, type, severity, description,
	reporter_id, reported_at, upvotes, downvotes,
	status, photo_url, created_at, updated_at
`

// Get retrieves an obstacle by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Obstacle, error) {
	query := `SELECT ` + obstacleColumns + ` FROM obstacles WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	o, err := scanObstacle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrObstacleNotFound
		}
		return nil, err
	}
	return o, nil
}

// List retrieves obstacles matching the filter with cursor pagination.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `SELECT ` + obstacleColumns + ` FROM obstacles WHERE 1=1`
	args := []interface{}{}

	query, args = appendFilter(query, args, opts.Filter)

	if opts.Cursor != "" {
		args = append(args, opts.Cursor)
		query += fmt.Sprintf(" AND created_at < (SELECT created_at FROM obstacles WHERE id = $%d)", len(args))
	}

	args = append(args, fetchLimit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	obstacles, err := scanObstacles(rows)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Items: obstacles}

	if len(obstacles) > limit {
		result.Items = obstacles[:limit]
		result.NextCursor = obstacles[limit-1].ID
	}

	return result, nil
}

// ListAll retrieves every obstacle matching the filter.
func (r *PostgresRepository) ListAll(ctx context.Context, filter ListFilter) ([]*Obstacle, error) {
	query := `SELECT ` + obstacleColumns + ` FROM obstacles WHERE 1=1`
	args := []interface{}{}

	query, args = appendFilter(query, args, filter)
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanObstacles(rows)
}

// Create creates a new obstacle.
func (r *PostgresRepository) Create(ctx context.Context, o *Obstacle) error {
	query := `
		INSERT INTO obstacles (
			id, lat, lon, type, severity, description,
			reporter_id, reported_at, upvotes, downvotes,
			status, photo_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		o.ID,
		o.Point.Lat,
		o.Point.Lon,
		string(o.Type),
		string(o.Severity),
		o.Description,
		o.ReporterID,
		o.ReportedAt,
		o.Upvotes,
		o.Downvotes,
		string(o.Status),
		o.PhotoURL,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

// UpdateStatus sets the obstacle's status. Last write wins.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status lifecycle.Status) error {
	query := `UPDATE obstacles SET status = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, string(status))
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrObstacleNotFound
	}

	return nil
}

// AddVote records a vote and bumps the matching counter in one transaction.
func (r *PostgresRepository) AddVote(ctx context.Context, vote *Vote) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertVote := `
		INSERT INTO obstacle_votes (id, obstacle_id, reporter_id, up, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, insertVote, vote.ID, vote.ObstacleID, vote.ReporterID, vote.Up, vote.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation on (obstacle_id, reporter_id)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateVote
		}
		return err
	}

	counter := "downvotes"
	if vote.Up {
		counter = "upvotes"
	}
	bump := fmt.Sprintf(`UPDATE obstacles SET %s = %s + 1, updated_at = now() WHERE id = $1`, counter, counter)

	result, err := tx.Exec(ctx, bump, vote.ObstacleID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrObstacleNotFound
	}

	return tx.Commit(ctx)
}

// appendFilter appends WHERE clauses for the non-zero filter fields.
func appendFilter(query string, args []interface{}, filter ListFilter) (string, []interface{}) {
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Severity != "" {
		args = append(args, string(filter.Severity))
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	return query, args
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanObstacle scans a single obstacle row. Type, severity, and status
// strings pass through the Parse functions so unrecognized store values
// degrade to the unknown variants instead of leaking raw strings.
func scanObstacle(row rowScanner) (*Obstacle, error) {
	var (
		o                        Obstacle
		typ, severity, statusStr string
	)

	err := row.Scan(
		&o.ID,
		&o.Point.Lat,
		&o.Point.Lon,
		&typ,
		&severity,
		&o.Description,
		&o.ReporterID,
		&o.ReportedAt,
		&o.Upvotes,
		&o.Downvotes,
		&statusStr,
		&o.PhotoURL,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Type = ParseType(typ)
	o.Severity = ParseSeverity(severity)
	o.Status = lifecycle.ParseStatus(statusStr)

	return &o, nil
}

func scanObstacles(rows pgx.Rows) ([]*Obstacle, error) {
	var obstacles []*Obstacle
	for rows.Next() {
		o, err := scanObstacle(rows)
		if err != nil {
			return nil, err
		}
		obstacles = append(obstacles, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return obstacles, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
