package repo

import (
	"context"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlatformRepo works against the super-admin database only; it never follows
// the tenant bound to the request.
type PlatformRepo struct {
	DB *gorm.DB
}

func (r *PlatformRepo) conn(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx)
}

func (r *PlatformRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *PlatformRepo) CountSuperAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&models.SuperAdminUser{}).Count(&n).Error
	return n, err
}

func (r *PlatformRepo) SuperAdminByEmail(ctx context.Context, email string) (*models.SuperAdminUser, error) {
	var u models.SuperAdminUser
	if err := r.conn(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PlatformRepo) CreateSuperAdmin(ctx context.Context, u *models.SuperAdminUser) error {
	return r.conn(ctx).Create(u).Error
}

// ListClients returns every client with its license count.
func (r *PlatformRepo) ListClients(ctx context.Context) ([]models.Client, error) {
	out := []models.Client{}
	if err := r.conn(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		ClientID string
		N        int64
	}
	if err := r.conn(ctx).Model(&models.License{}).
		Select("client_id, COUNT(*) AS n").Group("client_id").Scan(&counts).Error; err != nil {
		return nil, err
	}
	byClient := make(map[string]int64, len(counts))
	for _, c := range counts {
		byClient[c.ClientID] = c.N
	}
	for i := range out {
		out[i].LicenseCount = byClient[out[i].ClientID]
	}
	return out, nil
}

func (r *PlatformRepo) ClientByID(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	if err := r.conn(ctx).Where("client_id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	if err := r.conn(ctx).Model(&models.License{}).Where("client_id = ?", id).Count(&c.LicenseCount).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ClientFieldTaken reports whether another client already uses value in
// column. exceptID excludes the client being updated.
func (r *PlatformRepo) ClientFieldTaken(ctx context.Context, column, value, exceptID string) (bool, error) {
	var n int64
	q := r.conn(ctx).Model(&models.Client{}).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if exceptID != "" {
		q = q.Where("client_id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *PlatformRepo) CreateClient(ctx context.Context, c *models.Client) error {
	return r.conn(ctx).Omit(clause.Associations).Create(c).Error
}

func (r *PlatformRepo) UpdateClient(ctx context.Context, id string, fields map[string]any) error {
	res := r.conn(ctx).Model(&models.Client{}).Where("client_id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

// DeleteClient removes the client with its licenses and revenue rows.
func (r *PlatformRepo) DeleteClient(ctx context.Context, id string) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&models.License{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.Revenue{}).Error; err != nil {
			return err
		}
		res := tx.Where("client_id = ?", id).Delete(&models.Client{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRows
		}
		return nil
	})
}

func (r *PlatformRepo) ListLicenses(ctx context.Context) ([]models.License, error) {
	out := []models.License{}
	err := r.conn(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *PlatformRepo) CreateLicense(ctx context.Context, l *models.License) error {
	return r.conn(ctx).Omit(clause.Associations).Create(l).Error
}

func (r *PlatformRepo) LicenseByKey(ctx context.Context, key string) (*models.License, error) {
	var l models.License
	if err := r.conn(ctx).Where("key = ?", key).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// BindLicense sets machine_hash only while it is still empty; it reports
// whether this call won the binding.
func (r *PlatformRepo) BindLicense(ctx context.Context, licenseID, machineHash string) (bool, error) {
	res := r.conn(ctx).Model(&models.License{}).
		Where("license_id = ? AND (machine_hash IS NULL OR machine_hash = '')", licenseID).
		Update("machine_hash", machineHash)
	return res.RowsAffected > 0, res.Error
}

func (r *PlatformRepo) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	out := []models.Subscription{}
	err := r.conn(ctx).Order("price ASC").Find(&out).Error
	return out, err
}

// UpsertSubscription creates or updates the plan keyed by plan_name.
func (r *PlatformRepo) UpsertSubscription(ctx context.Context, s *models.Subscription) error {
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "features", "updated_at"}),
	}).Create(s).Error
}

func (r *PlatformRepo) CreateRevenue(ctx context.Context, rev *models.Revenue) error {
	return r.conn(ctx).Omit(clause.Associations).Create(rev).Error
}

func (r *PlatformRepo) RevenueSince(ctx context.Context, since time.Time) (float64, error) {
	var out sumRow
	q := r.conn(ctx).Model(&models.Revenue{})
	if !since.IsZero() {
		q = q.Where("transaction_date >= ?", since)
	}
	err := q.Select("COALESCE(SUM(amount), 0) AS total").Scan(&out).Error
	return out.Total, err
}

func (r *PlatformRepo) RecentRevenue(ctx context.Context, limit int) ([]models.Revenue, error) {
	out := []models.Revenue{}
	err := r.conn(ctx).Order("transaction_date DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *PlatformRepo) ListConfig(ctx context.Context) ([]models.SystemConfig, error) {
	out := []models.SystemConfig{}
	err := r.conn(ctx).Order("config_key ASC").Find(&out).Error
	return out, err
}

func (r *PlatformRepo) UpsertConfig(ctx context.Context, c *models.SystemConfig) error {
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"config_value", "description"}),
	}).Create(c).Error
}

type PlatformStats struct {
	Clients        int64 `json:"total_clients"`
	ActiveClients  int64 `json:"active_clients"`
	Licenses       int64 `json:"total_licenses"`
	ActiveLicenses int64 `json:"active_licenses"`
}

func (r *PlatformRepo) Stats(ctx context.Context) (PlatformStats, error) {
	var st PlatformStats
	db := r.conn(ctx)
	if err := db.Model(&models.Client{}).Count(&st.Clients).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Client{}).Where("status = ?", models.ClientActive).Count(&st.ActiveClients).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.License{}).Count(&st.Licenses).Error; err != nil {
		return st, err
	}
	err := db.Model(&models.License{}).
		Where("status = ? AND valid_until > ?", models.LicenseActive, time.Now().UTC()).
		Count(&st.ActiveLicenses).Error
	return st, err
}
