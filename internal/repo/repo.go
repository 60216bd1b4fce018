package repo

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepo works against the store database bound to the request context,
// falling back to DB.
type GormRepo struct {
	DB   *gorm.DB
	inTx bool
}

func (r *GormRepo) conn(ctx context.Context) *gorm.DB {
	if r.inTx {
		return r.DB.WithContext(ctx)
	}
	return tenant.DB(ctx, r.DB)
}

// Transact runs fn inside one transaction. The repo handed to fn is bound to
// the transaction; an error from fn rolls everything back.
func (r *GormRepo) Transact(ctx context.Context, fn func(tx *GormRepo) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx, inTx: true})
	})
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.conn(ctx).DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
