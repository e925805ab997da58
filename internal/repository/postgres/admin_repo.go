package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/model"
)

// AdminRepo implements AdminRepository using PostgreSQL.
type AdminRepo struct{ db *DB }

// NewAdminRepo constructs an admin repository.
func NewAdminRepo(db *DB) *AdminRepo { return &AdminRepo{db: db} }

// Create inserts a new admin row.
func (r *AdminRepo) Create(ctx context.Context, a *model.Admin) error {
	const q = `
INSERT INTO admins (id, username, password_hash, is_superuser, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Username, a.PasswordHash, a.IsSuperuser, a.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByUsername selects an admin by username.
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	const q = `
SELECT id, username, password_hash, is_superuser, created_at
FROM admins WHERE username=$1`
	var a model.Admin
	err := r.db.Pool.QueryRow(ctx, q, username).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.IsSuperuser, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
