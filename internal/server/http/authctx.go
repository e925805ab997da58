package httpserver

import (
	"context"

	"github.com/and161185/wefixit/internal/model"
)

type ctxKey string

const adminKey ctxKey = "wfi.admin"

// WithAdmin stores the authenticated admin in context.
func WithAdmin(ctx context.Context, a *model.Admin) context.Context {
	return context.WithValue(ctx, adminKey, a)
}

// AdminFromCtx fetches the authenticated admin from context.
func AdminFromCtx(ctx context.Context) (*model.Admin, bool) {
	a, ok := ctx.Value(adminKey).(*model.Admin)
	return a, ok && a != nil
}
