package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

const insertStoreAdmin = `
INSERT INTO users (name, email, password_hash, role, is_active, is_approved, is_first_login, client_id, preferred_payout_method, created_at)
VALUES (:name, :email, :password_hash, :role, :is_active, :is_approved, :is_first_login, :client_id, :preferred_payout_method, :created_at)`

type storeAdminRow struct {
	Name                  string    `db:"name"`
	Email                 string    `db:"email"`
	PasswordHash          string    `db:"password_hash"`
	Role                  string    `db:"role"`
	IsActive              bool      `db:"is_active"`
	IsApproved            bool      `db:"is_approved"`
	IsFirstLogin          bool      `db:"is_first_login"`
	ClientID              string    `db:"client_id"`
	PreferredPayoutMethod string    `db:"preferred_payout_method"`
	CreatedAt             time.Time `db:"created_at"`
}

// SeedStoreAdmin writes the first admin of a freshly provisioned store
// straight into its users table. The account must change its password on
// first login.
func SeedStoreAdmin(ctx context.Context, store *gorm.DB, clientID, name, email, passwordHash string) error {
	sqlDB, err := store.DB()
	if err != nil {
		return fmt.Errorf("store handle: %w", err)
	}
	db := sqlx.NewDb(sqlDB, "sqlite3")

	row := storeAdminRow{
		Name:                  name,
		Email:                 email,
		PasswordHash:          passwordHash,
		Role:                  models.RoleAdmin,
		IsActive:              true,
		IsApproved:            true,
		IsFirstLogin:          true,
		ClientID:              clientID,
		PreferredPayoutMethod: "bank",
		CreatedAt:             time.Now().UTC(),
	}
	if _, err := db.NamedExecContext(ctx, insertStoreAdmin, row); err != nil {
		return fmt.Errorf("seed store admin: %w", err)
	}
	return nil
}
