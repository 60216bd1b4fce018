package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const (
	NotifySpecific   = "specific"
	NotifyAllSellers = "all_sellers"
	NotifyAllUsers   = "all_users"

	maskedPrefix = "****"
)

var ticketStatuses = map[string]bool{"open": true, "in_progress": true, "resolved": true, "closed": true}

type AdminService struct {
	Repo     *repo.GormRepo
	Notifier *Notifier
	Updates  *mykafka.Broadcaster
	Now      func() time.Time
}

func (s *AdminService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// periodKey buckets t for the dashboard chart.
func periodKey(t time.Time, interval string) string {
	t = t.UTC()
	switch interval {
	case "week":
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case "month":
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func (s *AdminService) Dashboard(ctx context.Context, q transport.DashboardQuery) (*transport.AdminDashboard, error) {
	interval := strings.ToLower(q.Interval)
	if interval == "" {
		interval = "day"
	}
	if interval != "day" && interval != "week" && interval != "month" {
		return nil, validation("interval must be day, week or month")
	}

	end := s.now()
	if q.EndDate != "" {
		d, err := parseDate(q.EndDate)
		if err != nil {
			return nil, validation("invalid end_date")
		}
		end = d
	}
	if len(q.EndDate) == len("2006-01-02") {
		end = end.AddDate(0, 0, 1)
	}
	start := end.AddDate(0, 0, -30)
	if q.StartDate != "" {
		d, err := parseDate(q.StartDate)
		if err != nil {
			return nil, validation("invalid start_date")
		}
		start = d
	}
	if !start.Before(end) {
		return nil, validation("start_date must be before end_date")
	}

	var out transport.AdminDashboard
	var err error
	if out.TotalUsers, err = s.Repo.CountUsers(ctx, ""); err != nil {
		return nil, err
	}
	if out.TotalSellers, err = s.Repo.CountUsers(ctx, models.RoleSeller); err != nil {
		return nil, err
	}
	if out.TotalOrders, err = s.Repo.CountOrders(ctx); err != nil {
		return nil, err
	}
	if out.TotalSales, err = s.Repo.SalesTotal(ctx); err != nil {
		return nil, err
	}
	out.TotalSales = util.RoundMoney(out.TotalSales)
	if out.PendingWithdrawals, err = s.Repo.CountWithdrawals(ctx, models.WithdrawalRequested); err != nil {
		return nil, err
	}

	orders, err := s.Repo.OrdersBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	buckets := map[string]*transport.ChartPoint{}
	for _, o := range orders {
		key := periodKey(o.CreatedAt, interval)
		p, ok := buckets[key]
		if !ok {
			p = &transport.ChartPoint{Period: key}
			buckets[key] = p
		}
		p.Orders++
		if o.Status != models.OrderCancelled && o.Status != models.OrderPaymentFailed {
			p.Sales = util.RoundMoney(p.Sales + o.TotalAmount)
		}
	}
	out.Chart = make([]transport.ChartPoint, 0, len(buckets))
	for _, p := range buckets {
		out.Chart = append(out.Chart, *p)
	}
	sort.Slice(out.Chart, func(i, j int) bool { return out.Chart[i].Period < out.Chart[j].Period })
	return &out, nil
}

func (s *AdminService) Users(ctx context.Context, role, search string) ([]models.User, error) {
	return s.Repo.ListUsers(ctx, repo.UserFilter{Role: role, Search: strings.TrimSpace(search)})
}

func (s *AdminService) UpdateUser(ctx context.Context, actor Actor, id uint, req transport.UpdateUserRequest) (*models.User, error) {
	fields := map[string]any{}
	if req.IsActive != nil {
		if !*req.IsActive && id == actor.ID {
			return nil, validation("you cannot deactivate your own account")
		}
		fields["is_active"] = *req.IsActive
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		switch role {
		case models.RoleUser, models.RoleSeller, models.RoleAdmin, models.RoleDelivery:
		default:
			return nil, validation("unknown role %s", role)
		}
		fields["role"] = role
	}
	if len(fields) == 0 {
		return nil, validation("nothing to update")
	}
	if err := s.Repo.UpdateUser(ctx, id, fields); err != nil {
		return nil, notFound(err, "user")
	}
	u, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	logging.FromContext(ctx).Info("user_updated", "svc", "admin.user_update", "user_id", id, "by", actor.ID)
	return u, nil
}

func (s *AdminService) SetSellerApproval(ctx context.Context, id uint, approved bool) (*models.User, error) {
	u, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if u.Role != models.RoleSeller {
		return nil, validation("user is not a seller")
	}
	if err := s.Repo.UpdateUser(ctx, id, map[string]any{"is_approved": approved}); err != nil {
		return nil, err
	}
	u.IsApproved = approved
	msg := "Your seller account has been approved."
	if !approved {
		msg = "Your seller account approval has been revoked."
	}
	s.Notifier.notifyAfterCommit(ctx, []uint{id}, "Seller account", msg)
	return u, nil
}

func (s *AdminService) SellerRequests(ctx context.Context, status string) ([]models.SellerRequest, error) {
	return s.Repo.ListSellerRequests(ctx, status)
}

// DecideSellerRequest closes an open request. Approval promotes the user to
// an approved seller in the same transaction.
func (s *AdminService) DecideSellerRequest(ctx context.Context, id uint, approve bool) (*models.SellerRequest, error) {
	var sr *models.SellerRequest
	err := s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		var err error
		sr, err = tx.SellerRequestByID(ctx, id)
		if err != nil {
			return notFound(err, "seller request")
		}
		if sr.Status != models.SellerRequestOpen {
			return validation("seller request already %s", sr.Status)
		}
		sr.Status = models.SellerRequestRejected
		if approve {
			sr.Status = models.SellerRequestApproved
			if err := tx.UpdateUser(ctx, sr.UserID, map[string]any{"role": models.RoleSeller, "is_approved": true}); err != nil {
				return notFound(err, "user")
			}
		}
		return tx.SetSellerRequestStatus(ctx, id, sr.Status)
	})
	if err != nil {
		return nil, err
	}
	s.Notifier.notifyAfterCommit(ctx, []uint{sr.UserID}, "Seller request", "Your seller request was "+sr.Status+".")
	return sr, nil
}

func (s *AdminService) Orders(ctx context.Context, f repo.OrderFilter) ([]transport.AdminOrderRow, error) {
	orders, err := s.Repo.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]transport.AdminOrderRow, 0, len(orders))
	for _, o := range orders {
		row := transport.AdminOrderRow{Order: o, SellerNames: []string{}}
		if o.User != nil {
			row.CustomerName = o.User.Name
		}
		seen := map[uint]bool{}
		for _, it := range o.Items {
			if it.Seller == nil || seen[it.SellerID] {
				continue
			}
			seen[it.SellerID] = true
			row.SellerNames = append(row.SellerNames, it.Seller.Name)
		}
		row.Order.User = nil
		out = append(out, row)
	}
	return out, nil
}

func (s *AdminService) Withdrawals(ctx context.Context, status string) ([]models.WithdrawalRequest, error) {
	return s.Repo.ListWithdrawals(ctx, status)
}

// moveWithdrawal applies one admin step on a locked withdrawal.
func (s *AdminService) moveWithdrawal(ctx context.Context, id uint, step func(tx *repo.GormRepo, w *models.WithdrawalRequest) error) (*models.WithdrawalRequest, error) {
	var w *models.WithdrawalRequest
	err := s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		var err error
		w, err = tx.LockWithdrawal(ctx, id)
		if err != nil {
			return notFound(err, "withdrawal")
		}
		return step(tx, w)
	})
	if err != nil {
		return nil, err
	}
	s.Updates.Emit(ctx, tenant.ID(ctx), "withdrawal", w.Status, map[string]any{"id": w.ID, "seller_id": w.SellerID})
	s.Notifier.notifyAfterCommit(ctx, []uint{w.SellerID}, "Withdrawal update",
		fmt.Sprintf("Withdrawal #%d of %.2f is now %s.", w.ID, w.Amount, w.Status))
	return w, nil
}

func (s *AdminService) ApproveWithdrawal(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	return s.moveWithdrawal(ctx, id, func(tx *repo.GormRepo, w *models.WithdrawalRequest) error {
		if w.Status != models.WithdrawalRequested {
			return validation("withdrawal is %s", w.Status)
		}
		w.Status = models.WithdrawalApproved
		return tx.UpdateWithdrawal(ctx, w.ID, map[string]any{"status": w.Status})
	})
}

func (s *AdminService) RejectWithdrawal(ctx context.Context, id uint, reason string) (*models.WithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validation("reason is required")
	}
	return s.moveWithdrawal(ctx, id, func(tx *repo.GormRepo, w *models.WithdrawalRequest) error {
		if w.Status != models.WithdrawalRequested {
			return validation("withdrawal is %s", w.Status)
		}
		w.Status = models.WithdrawalRejected
		w.RejectionReason = reason
		return tx.UpdateWithdrawal(ctx, w.ID, map[string]any{"status": w.Status, "rejection_reason": reason})
	})
}

// CompleteWithdrawal records a manual payout for an approved request.
func (s *AdminService) CompleteWithdrawal(ctx context.Context, adminID, id uint, details string) (*models.WithdrawalRequest, error) {
	paidAt := s.now()
	return s.moveWithdrawal(ctx, id, func(tx *repo.GormRepo, w *models.WithdrawalRequest) error {
		if w.Status != models.WithdrawalApproved && w.Status != models.WithdrawalRequested {
			return validation("withdrawal is %s", w.Status)
		}
		wid, aid := w.ID, adminID
		rec := models.PaymentRecord{
			WithdrawalID: &wid,
			Amount:       w.Amount,
			Method:       "manual",
			Details:      strings.TrimSpace(details),
			PaidAt:       &paidAt,
			AdminID:      &aid,
		}
		if err := tx.CreatePaymentRecord(ctx, &rec); err != nil {
			return err
		}
		w.Status = models.WithdrawalCompleted
		w.Payments = append(w.Payments, rec)
		return tx.UpdateWithdrawal(ctx, w.ID, map[string]any{"status": w.Status})
	})
}

func (s *AdminService) Tickets(ctx context.Context, status string) ([]models.SupportTicket, error) {
	return s.Repo.ListTickets(ctx, status)
}

func (s *AdminService) SetTicketStatus(ctx context.Context, id uint, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if !ticketStatuses[status] {
		return validation("unknown ticket status %s", status)
	}
	return notFound(s.Repo.SetTicketStatus(ctx, id, status), "ticket")
}

func (s *AdminService) Alerts(ctx context.Context) ([]transport.SystemAlert, error) {
	withdrawals, err := s.Repo.CountWithdrawals(ctx, models.WithdrawalRequested)
	if err != nil {
		return nil, err
	}
	requests, err := s.Repo.CountSellerRequests(ctx, models.SellerRequestOpen)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.Repo.CountLowStock(ctx, 0)
	if err != nil {
		return nil, err
	}

	alerts := []transport.SystemAlert{}
	if withdrawals > 0 {
		alerts = append(alerts, transport.SystemAlert{Type: "withdrawal", Count: withdrawals,
			Message: fmt.Sprintf("%d withdrawal requests are waiting for approval", withdrawals)})
	}
	if requests > 0 {
		alerts = append(alerts, transport.SystemAlert{Type: "seller_request", Count: requests,
			Message: fmt.Sprintf("%d users asked to become sellers", requests)})
	}
	if lowStock > 0 {
		alerts = append(alerts, transport.SystemAlert{Type: "low_stock", Count: lowStock,
			Message: fmt.Sprintf("%d products are low on stock", lowStock)})
	}
	return alerts, nil
}

// SendNotification fans a message out to one user, every seller or every
// active user. It returns the number of notifications created.
func (s *AdminService) SendNotification(ctx context.Context, req transport.SendNotificationRequest) (int, error) {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return 0, validation("subject and message are required")
	}

	var ids []uint
	switch req.Target {
	case NotifySpecific:
		if req.UserID == 0 {
			return 0, validation("user_id is required")
		}
		if _, err := s.Repo.UserByID(ctx, req.UserID); err != nil {
			return 0, notFound(err, "user")
		}
		ids = []uint{req.UserID}
	case NotifyAllSellers, NotifyAllUsers:
		var users []models.User
		var err error
		if req.Target == NotifyAllSellers {
			users, err = s.Repo.UsersByRole(ctx, models.RoleSeller)
		} else {
			users, err = s.Repo.ActiveUsers(ctx)
		}
		if err != nil {
			return 0, err
		}
		for _, u := range users {
			ids = append(ids, u.ID)
		}
	default:
		return 0, validation("target must be specific, all_sellers or all_users")
	}

	if err := s.Notifier.NotifyMany(ctx, ids, subject, message); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *AdminService) Ads(ctx context.Context) ([]models.Advertisement, error) {
	return s.Repo.ListAds(ctx)
}

func applyAd(ad *models.Advertisement, req transport.AdRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return validation("title is required")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return validation("end_date is before start_date")
	}
	ad.Title = strings.TrimSpace(req.Title)
	ad.Text = req.Text
	ad.ImageURL = req.ImageURL
	ad.FooterLogoURL = req.FooterLogoURL
	ad.TargetURL = req.TargetURL
	ad.Position = req.Position
	if ad.Position == "" {
		ad.Position = "home_banner"
	}
	ad.Priority = req.Priority
	ad.StartDate = req.StartDate
	ad.EndDate = req.EndDate
	ad.TargetRoles = req.TargetRoles
	ad.ProductID = req.ProductID
	if req.IsActive != nil {
		ad.IsActive = *req.IsActive
	}
	return nil
}

func (s *AdminService) CreateAd(ctx context.Context, req transport.AdRequest) (*models.Advertisement, error) {
	ad := &models.Advertisement{IsActive: true}
	if err := applyAd(ad, req); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateAd(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *AdminService) UpdateAd(ctx context.Context, id uint, req transport.AdRequest) (*models.Advertisement, error) {
	ad, err := s.Repo.AdByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "advertisement")
	}
	if err := applyAd(ad, req); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveAd(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *AdminService) DeleteAd(ctx context.Context, id uint) error {
	return notFound(s.Repo.DeleteAd(ctx, id), "advertisement")
}

// Settings returns the site settings; gateway credentials live behind
// PaymentSettings.
func (s *AdminService) Settings(ctx context.Context) (map[string]string, error) {
	all, err := s.Repo.Settings(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, k := range paymentSettingKeys() {
		delete(all, k)
	}
	return all, nil
}

func (s *AdminService) PutSettings(ctx context.Context, values map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(values))
	for k, v := range values {
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, validation("empty setting key")
		}
		if isPaymentSetting(k) {
			return nil, validation("%s is a payment setting", k)
		}
		clean[k] = v
	}
	if err := s.Repo.PutSettings(ctx, clean); err != nil {
		return nil, err
	}
	s.Updates.Emit(ctx, tenant.ID(ctx), "settings", "updated", map[string]any{"keys": len(clean)})
	return s.Settings(ctx)
}

func isPaymentSetting(key string) bool {
	for _, k := range paymentSettingKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return maskedPrefix
	}
	return maskedPrefix + v[len(v)-4:]
}

// PaymentSettings lists the gateway settings with secrets masked.
func (s *AdminService) PaymentSettings(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(paymentSettingKeys()))
	for _, k := range paymentSettingKeys() {
		v, _, err := s.Repo.Setting(ctx, k)
		if err != nil {
			return nil, err
		}
		if secretSettings[k] {
			v = mask(v)
		}
		out[k] = v
	}
	return out, nil
}

// PutPaymentSettings stores gateway settings. A value that still carries the
// mask is what PaymentSettings handed out and is left unchanged.
func (s *AdminService) PutPaymentSettings(ctx context.Context, values map[string]string) (map[string]string, error) {
	clean := map[string]string{}
	for k, v := range values {
		if !isPaymentSetting(k) {
			return nil, validation("unknown payment setting %s", k)
		}
		v = strings.TrimSpace(v)
		if secretSettings[k] && strings.HasPrefix(v, maskedPrefix) {
			continue
		}
		clean[k] = v
	}
	if err := s.Repo.PutSettings(ctx, clean); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("payment_settings_updated", "svc", "admin.payment_settings", "keys", len(clean))
	return s.PaymentSettings(ctx)
}
