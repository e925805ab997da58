// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/wefixit/internal/model"
)

// AdminRepository provides access to admin identities.
type AdminRepository interface {
	// GetByUsername loads an admin by exact, case-sensitive username.
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	// Create inserts a new admin; a taken username yields errs.ErrAlreadyExists.
	Create(ctx context.Context, a *model.Admin) error
}
