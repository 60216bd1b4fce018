package repo

import (
	"context"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActiveAds returns the ads that are switched on and inside their date
// window at now, highest priority first.
func (r *GormRepo) ActiveAds(ctx context.Context, position string, now time.Time) ([]models.Advertisement, error) {
	q := r.conn(ctx).Where("is_active = ?", true).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now)
	if position != "" {
		q = q.Where("position = ?", position)
	}
	out := []models.Advertisement{}
	err := q.Order("priority DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) ListAds(ctx context.Context) ([]models.Advertisement, error) {
	out := []models.Advertisement{}
	err := r.conn(ctx).Order("priority DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) AdByID(ctx context.Context, id uint) (*models.Advertisement, error) {
	var ad models.Advertisement
	if err := r.conn(ctx).First(&ad, id).Error; err != nil {
		return nil, err
	}
	return &ad, nil
}

func (r *GormRepo) CreateAd(ctx context.Context, ad *models.Advertisement) error {
	return r.conn(ctx).Create(ad).Error
}

func (r *GormRepo) SaveAd(ctx context.Context, ad *models.Advertisement) error {
	return r.conn(ctx).Save(ad).Error
}

func (r *GormRepo) DeleteAd(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.Advertisement{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *GormRepo) CountAdViews(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(ctx).Model(&models.Advertisement{}).Where("id IN ?", ids).
		Update("views", gorm.Expr("views + 1")).Error
}

// CountAdClick bumps clicks and returns the new value.
func (r *GormRepo) CountAdClick(ctx context.Context, id uint) (int, error) {
	var clicks int
	err := r.Transact(ctx, func(tx *GormRepo) error {
		db := tx.conn(ctx)
		res := db.Model(&models.Advertisement{}).Where("id = ?", id).Update("clicks", gorm.Expr("clicks + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRows
		}
		var ad models.Advertisement
		if err := db.Select("id", "clicks").First(&ad, id).Error; err != nil {
			return err
		}
		clicks = ad.Clicks
		return nil
	})
	return clicks, err
}

// Settings returns the key/value rows whose key starts with prefix.
func (r *GormRepo) Settings(ctx context.Context, prefix string) (map[string]string, error) {
	var rows []models.Setting
	q := r.conn(ctx)
	if prefix != "" {
		q = q.Where("key LIKE ?", prefix+"%")
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}

func (r *GormRepo) Setting(ctx context.Context, key string) (string, bool, error) {
	var s models.Setting
	err := r.conn(ctx).Where("key = ?", key).Limit(1).Find(&s).Error
	if err != nil || s.ID == 0 {
		return "", false, err
	}
	return s.Value, true, nil
}

// PutSettings upserts every pair on the unique key.
func (r *GormRepo) PutSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]models.Setting, 0, len(values))
	for k, v := range values {
		rows = append(rows, models.Setting{Key: strings.TrimSpace(k), Value: v})
	}
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
}

func (r *GormRepo) CreateFile(ctx context.Context, f *models.File) error {
	return r.conn(ctx).Create(f).Error
}

func (r *GormRepo) FileByID(ctx context.Context, id uint) (*models.File, error) {
	var f models.File
	if err := r.conn(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *GormRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.conn(ctx).Create(n).Error
}

func (r *GormRepo) CreateNotifications(ctx context.Context, ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.conn(ctx).CreateInBatches(ns, 100).Error
}

func (r *GormRepo) NotificationsForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	out := []models.Notification{}
	err := r.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) MarkNotificationRead(ctx context.Context, userID, id uint) error {
	res := r.conn(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *GormRepo) MarkAllNotificationsRead(ctx context.Context, userID uint) error {
	return r.conn(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Update("is_read", true).Error
}

func (r *GormRepo) CreateTicket(ctx context.Context, t *models.SupportTicket) error {
	return r.conn(ctx).Create(t).Error
}

func (r *GormRepo) ListTickets(ctx context.Context, status string) ([]models.SupportTicket, error) {
	q := r.conn(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out := []models.SupportTicket{}
	err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) SetTicketStatus(ctx context.Context, id uint, status string) error {
	res := r.conn(ctx).Model(&models.SupportTicket{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

// Subscribe stores the address once; it reports whether a row was created.
func (r *GormRepo) Subscribe(ctx context.Context, s *models.NewsletterSubscriber) (bool, error) {
	res := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s)
	return res.RowsAffected > 0, res.Error
}

// LowStockProducts lists products at or below their low-stock threshold.
func (r *GormRepo) LowStockProducts(ctx context.Context, limit int) ([]models.Product, error) {
	out := []models.Product{}
	err := r.conn(ctx).Model(&models.Product{}).Preload("Inventory").
		Joins("JOIN inventories ON inventories.product_id = products.id").
		Where("inventories.stock_qty <= inventories.low_stock_threshold").
		Order("inventories.stock_qty ASC").Limit(limit).Find(&out).Error
	return out, err
}
