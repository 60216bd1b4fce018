package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/google/uuid"
)

const maxUploadSize = 10 << 20

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// publicDefaults are served for site settings an admin never set.
var publicDefaults = map[string]string{
	"site_title":              "Marketplace",
	"items_per_page":          "12",
	"category_grid_columns":   "4",
	"site_logo":               "",
	"home_banner_image":       "",
	"home_banner_video":       "",
	"home_banner_heading":     "Electronics & More",
	"home_banner_subheading":  "Discover a world of authentic products.",
	"theme_brand_primary":     "#9c7373",
	"theme_brand_secondary":   "#9c7373",
	"theme_brand_accent":      "#9c7373",
	"theme_brand_background":  "#f5e9d1",
	"theme_layout_background": "#fefcfb",
	"theme_layout_card":       "#ffffff",
	"theme_layout_sidebar":    "#ffffff",
	"theme_layout_footer":     "#f5e9d1",
	"theme_text_primary":      "#000000",
	"theme_text_secondary":    "#0d0d0c",
	"theme_text_muted":        "#0a0a0a",
	"theme_text_inverse":      "#272420",
	"theme_status_success":    "#15e53f",
	"theme_status_warning":    "#ddeb24",
	"theme_status_error":      "#DC2626",
	"theme_status_info":       "#3B82F6",
}

type StoreService struct {
	Repo      *repo.GormRepo
	UploadDir string
	Now       func() time.Time
}

func (s *StoreService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Ads returns the ads currently on air and counts one view for each.
func (s *StoreService) Ads(ctx context.Context, position string) ([]models.Advertisement, error) {
	ads, err := s.Repo.ActiveAds(ctx, strings.TrimSpace(position), s.now())
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(ads))
	for i := range ads {
		ids = append(ids, ads[i].ID)
		ads[i].Views++
	}
	if err := s.Repo.CountAdViews(ctx, ids); err != nil {
		logging.FromContext(ctx).Warn("ad_views_not_counted", "error", err)
	}
	return ads, nil
}

func (s *StoreService) ClickAd(ctx context.Context, id uint) (int, error) {
	n, err := s.Repo.CountAdClick(ctx, id)
	if err != nil {
		return 0, notFound(err, "advertisement")
	}
	return n, nil
}

func (s *StoreService) PublicSettings(ctx context.Context) (map[string]any, error) {
	stored, err := s.Repo.Settings(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(publicDefaults))
	for k, def := range publicDefaults {
		v, ok := stored[k]
		if !ok || v == "" {
			v = def
		}
		out[k] = v
	}
	for _, k := range []string{"items_per_page", "category_grid_columns"} {
		n, err := strconv.Atoi(out[k].(string))
		if err != nil {
			n, _ = strconv.Atoi(publicDefaults[k])
		}
		out[k] = n
	}
	for _, k := range []string{"site_logo", "home_banner_image", "home_banner_video"} {
		if out[k] == "" {
			out[k] = nil
		}
	}
	return out, nil
}

// Upload stores an image under a generated name inside the store's upload
// directory and registers it as a File.
func (s *StoreService) Upload(ctx context.Context, ownerID uint, filename string, src io.Reader) (*models.File, error) {
	l := logging.FromContext(ctx).With("svc", "store.upload")

	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, validation("no selected file")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !imageExtensions[ext] {
		return nil, validation("file type %s not allowed", ext)
	}

	dir := s.UploadDir
	if id := tenant.ID(ctx); id != "" {
		dir = filepath.Join(dir, id)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	stored := uuid.NewString() + ext
	path := filepath.Join(dir, stored)
	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	n, err := io.Copy(dst, io.LimitReader(src, maxUploadSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxUploadSize {
		err = validation("file exceeds %d bytes", maxUploadSize)
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	f := &models.File{
		OwnerID:        ownerID,
		Filename:       name,
		StoredFilename: stored,
		Filepath:       path,
		Status:         "active",
		Size:           n,
	}
	if err := s.Repo.CreateFile(ctx, f); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	l.Info("file_uploaded", "file_id", f.ID, "size", n)
	return f, nil
}

// File returns the row and an open handle for streaming. The caller closes it.
func (s *StoreService) File(ctx context.Context, id uint) (*models.File, *os.File, error) {
	f, err := s.Repo.FileByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, "file")
	}
	fh, err := os.Open(f.Filepath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: file content missing", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return f, fh, nil
}

// CreateTicket files a support request. userID is nil for anonymous callers,
// who must leave an email.
func (s *StoreService) CreateTicket(ctx context.Context, userID *uint, req transport.TicketRequest) (*models.SupportTicket, error) {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return nil, validation("subject and message are required")
	}
	email := strings.TrimSpace(req.Email)
	if userID == nil && email == "" {
		return nil, validation("email is required")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, validation("invalid email")
		}
	}
	t := &models.SupportTicket{UserID: userID, Email: email, Subject: subject, Message: message, Status: "open"}
	if err := s.Repo.CreateTicket(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Subscribe adds email to the newsletter. It reports false when the address
// was already subscribed.
func (s *StoreService) Subscribe(ctx context.Context, req transport.NewsletterRequest) (bool, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return false, err
	}
	return s.Repo.Subscribe(ctx, &models.NewsletterSubscriber{Email: email, GDPRConsent: req.GDPRConsent})
}

func (s *StoreService) Notifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.Repo.NotificationsForUser(ctx, userID)
}

func (s *StoreService) MarkRead(ctx context.Context, userID, id uint) error {
	return notFound(s.Repo.MarkNotificationRead(ctx, userID, id), "notification")
}

func (s *StoreService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.Repo.MarkAllNotificationsRead(ctx, userID)
}
