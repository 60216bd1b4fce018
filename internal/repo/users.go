package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.conn(ctx).Create(u).Error
}

func (r *GormRepo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.conn(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.conn(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(email)).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uint, fields map[string]any) error {
	res := r.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

type UserFilter struct {
	Role   string
	Search string
}

func (r *GormRepo) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := r.conn(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	var users []models.User
	err := q.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *GormRepo) CountUsers(ctx context.Context, role string) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&models.User{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func (r *GormRepo) UsersByRole(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	err := r.conn(ctx).Where("role = ?", role).Find(&users).Error
	return users, err
}

func (r *GormRepo) ActiveUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.conn(ctx).Where("is_active = ?", true).Find(&users).Error
	return users, err
}

func (r *GormRepo) OpenSellerRequest(ctx context.Context, userID uint) (*models.SellerRequest, error) {
	var sr models.SellerRequest
	err := r.conn(ctx).Where("user_id = ? AND status = ?", userID, models.SellerRequestOpen).First(&sr).Error
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

func (r *GormRepo) CreateSellerRequest(ctx context.Context, sr *models.SellerRequest) error {
	return r.conn(ctx).Create(sr).Error
}

func (r *GormRepo) SellerRequestByID(ctx context.Context, id uint) (*models.SellerRequest, error) {
	var sr models.SellerRequest
	if err := r.conn(ctx).Preload("User").First(&sr, id).Error; err != nil {
		return nil, err
	}
	return &sr, nil
}

func (r *GormRepo) ListSellerRequests(ctx context.Context, status string) ([]models.SellerRequest, error) {
	q := r.conn(ctx).Preload("User")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.SellerRequest
	err := q.Order("requested_at DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) SetSellerRequestStatus(ctx context.Context, id uint, status string) error {
	return r.conn(ctx).Model(&models.SellerRequest{}).Where("id = ?", id).Update("status", status).Error
}

func (r *GormRepo) CountSellerRequests(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&models.SellerRequest{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
