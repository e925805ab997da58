package memory

import (
	"context"
	"sync"

	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/model"
)

// Admins is an in-memory AdminRepository keyed by username.
type Admins struct {
	mu     sync.RWMutex
	byName map[string]model.Admin
}

// NewAdmins returns an empty admin store.
func NewAdmins() *Admins {
	return &Admins{byName: map[string]model.Admin{}}
}

// Create inserts an admin unless the username is taken.
func (a *Admins) Create(_ context.Context, adm *model.Admin) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byName[adm.Username]; ok {
		return errs.ErrAlreadyExists
	}
	a.byName[adm.Username] = *adm
	return nil
}

// GetByUsername returns a copy of the admin.
func (a *Admins) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	adm, ok := a.byName[username]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &adm, nil
}

// Delete removes an admin; used to simulate an identity vanishing.
func (a *Admins) Delete(_ context.Context, username string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byName[username]; !ok {
		return errs.ErrNotFound
	}
	delete(a.byName, username)
	return nil
}
