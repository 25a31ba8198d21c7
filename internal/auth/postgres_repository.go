package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAdminRepository is a PostgreSQL implementation of AdminRepository.
type PostgresAdminRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAdminRepository creates a new PostgreSQL admin repository.
func NewPostgresAdminRepository(pool *pgxpool.Pool) *PostgresAdminRepository {
	return &PostgresAdminRepository{pool: pool}
}

// FindByEmail finds an admin by email address.
func (r *PostgresAdminRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	query := `
		SELECT id, email, name, role, password_hash, created_at, updated_at
		FROM admins
		WHERE email = $1
	`

	var admin Admin
	var role string
	err := r.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&role,
		&admin.PasswordHash,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	admin.Role = ParseRole(role)

	return &admin, nil
}

// FindByID finds an admin by internal ID.
func (r *PostgresAdminRepository) FindByID(ctx context.Context, id string) (*Admin, error) {
	query := `
		SELECT id, email, name, role, password_hash, created_at, updated_at
		FROM admins
		WHERE id = $1
	`

	var admin Admin
	var role string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&role,
		&admin.PasswordHash,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	admin.Role = ParseRole(role)

	return &admin, nil
}

// Create creates a new admin account.
func (r *PostgresAdminRepository) Create(ctx context.Context, admin *Admin) error {
	query := `
		INSERT INTO admins (id, email, name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		admin.ID,
		strings.ToLower(admin.Email),
		admin.Name,
		string(admin.Role),
		admin.PasswordHash,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	return err
}

// PostgresRefreshTokenRepository is a PostgreSQL implementation of RefreshTokenRepository.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRefreshTokenRepository creates a new PostgreSQL refresh token repository.
func NewPostgresRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

// Create stores a new refresh token.
func (r *PostgresRefreshTokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token, admin_id, expires_at, created_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.Token,
		token.AdminID,
		token.ExpiresAt,
		token.CreatedAt,
		token.RevokedAt,
	)
	return err
}

// FindByToken finds a refresh token by its value.
func (r *PostgresRefreshTokenRepository) FindByToken(ctx context.Context, tokenValue string) (*RefreshToken, error) {
	query := `
		SELECT id, token, admin_id, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token = $1
	`

	var token RefreshToken
	err := r.pool.QueryRow(ctx, query, tokenValue).Scan(
		&token.ID,
		&token.Token,
		&token.AdminID,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return &token, nil
}

// Revoke marks a refresh token as revoked.
func (r *PostgresRefreshTokenRepository) Revoke(ctx context.Context, tokenValue string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE token = $2 AND revoked_at IS NULL
	`

	_, err := r.pool.Exec(ctx, query, time.Now(), tokenValue)
	return err
}

// RevokeAllForAdmin revokes all refresh tokens for an admin.
func (r *PostgresRefreshTokenRepository) RevokeAllForAdmin(ctx context.Context, adminID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE admin_id = $2 AND revoked_at IS NULL
	`

	_, err := r.pool.Exec(ctx, query, time.Now(), adminID)
	return err
}

// Interface compliance checks
var (
	_ AdminRepository        = (*PostgresAdminRepository)(nil)
	_ RefreshTokenRepository = (*PostgresRefreshTokenRepository)(nil)
)
