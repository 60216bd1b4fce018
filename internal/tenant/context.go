package tenant

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/models"
	"gorm.io/gorm"
)

type ctxKey struct{}

type scope struct {
	db     *gorm.DB
	client *models.Client
}

// IntoContext binds the store database (and the tenant, nil for the default
// store) to ctx.
func IntoContext(ctx context.Context, db *gorm.DB, client *models.Client) context.Context {
	return context.WithValue(ctx, ctxKey{}, scope{db: db, client: client})
}

// DB returns the database bound to ctx, or fallback when none is bound.
func DB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if s, ok := ctx.Value(ctxKey{}).(scope); ok && s.db != nil {
		return s.db.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

func ClientFrom(ctx context.Context) *models.Client {
	if s, ok := ctx.Value(ctxKey{}).(scope); ok {
		return s.client
	}
	return nil
}

// ID is the client id of the bound tenant, empty for the default store.
func ID(ctx context.Context) string {
	if c := ClientFrom(ctx); c != nil {
		return c.ClientID
	}
	return ""
}
