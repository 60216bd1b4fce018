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

// balanceTolerance absorbs float rounding when a seller withdraws the whole
// balance.
const balanceTolerance = 0.01

type SellerService struct {
	Repo    *repo.GormRepo
	Updates *mykafka.Broadcaster
	Now     func() time.Time
}

func (s *SellerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// nextPayoutWindow is the next 11:00 UTC strictly after now.
func nextPayoutWindow(now time.Time) time.Time {
	now = now.UTC()
	due := time.Date(now.Year(), now.Month(), now.Day(), 11, 0, 0, 0, time.UTC)
	if !now.Before(due) {
		due = due.AddDate(0, 0, 1)
	}
	return due
}

func (s *SellerService) Dashboard(ctx context.Context, sellerID uint) (*transport.SellerDashboard, error) {
	var out transport.SellerDashboard
	var err error
	if out.ProductCount, err = s.Repo.CountProducts(ctx, sellerID); err != nil {
		return nil, err
	}
	if out.OrderCount, err = s.Repo.SellerOrderCount(ctx, sellerID); err != nil {
		return nil, err
	}
	if out.TotalSales, err = s.Repo.SellerSalesTotal(ctx, sellerID); err != nil {
		return nil, err
	}
	if out.LowStockCount, err = s.Repo.CountLowStock(ctx, sellerID); err != nil {
		return nil, err
	}
	out.TotalSales = util.RoundMoney(out.TotalSales)
	return &out, nil
}

func (s *SellerService) Orders(ctx context.Context, sellerID uint) ([]models.Order, error) {
	return s.Repo.OrdersForSeller(ctx, sellerID)
}

func (s *SellerService) BankDetails(ctx context.Context, sellerID uint) (*models.User, error) {
	u, err := s.Repo.UserByID(ctx, sellerID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *SellerService) UpdateBankDetails(ctx context.Context, sellerID uint, req transport.BankDetailsRequest) (*models.User, error) {
	fields := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	set("bank_account_number", req.BankAccountNumber)
	set("bank_ifsc", req.BankIFSC)
	set("bank_beneficiary_name", req.BankBeneficiaryName)
	set("upi_id", req.UPIID)
	set("gst_number", req.GSTNumber)
	if req.PreferredPayoutMethod != nil {
		m := strings.ToLower(strings.TrimSpace(*req.PreferredPayoutMethod))
		if m != "bank" && m != "upi" {
			return nil, validation("preferred_payout_method must be bank or upi")
		}
		fields["preferred_payout_method"] = m
	}
	if len(fields) > 0 {
		if err := s.Repo.UpdateUser(ctx, sellerID, fields); err != nil {
			return nil, notFound(err, "user")
		}
	}
	return s.BankDetails(ctx, sellerID)
}

// Balance is everything the seller sold minus what is withdrawn or still
// waiting to be paid out.
func (s *SellerService) Balance(ctx context.Context, sellerID uint) (float64, float64, error) {
	return balance(ctx, s.Repo, sellerID)
}

func balance(ctx context.Context, r *repo.GormRepo, sellerID uint) (float64, float64, error) {
	sales, err := r.SellerSalesTotal(ctx, sellerID)
	if err != nil {
		return 0, 0, err
	}
	withdrawn, err := r.WithdrawnTotal(ctx, sellerID)
	if err != nil {
		return 0, 0, err
	}
	return util.RoundMoney(sales - withdrawn), util.RoundMoney(withdrawn), nil
}

func (s *SellerService) Withdrawals(ctx context.Context, sellerID uint) (*transport.WithdrawalSummary, error) {
	bal, withdrawn, err := s.Balance(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	u, err := s.Repo.UserByID(ctx, sellerID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	list, err := s.Repo.WithdrawalsBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	hasBank := u.BankAccountNumber != "" && u.BankIFSC != "" && u.BankBeneficiaryName != ""
	hasUPI := u.UPIID != ""
	return &transport.WithdrawalSummary{
		Balance:               bal,
		TotalWithdrawn:        withdrawn,
		BankDetailsConfigured: hasBank || hasUPI,
		HasBank:               hasBank,
		HasUPI:                hasUPI,
		Withdrawals:           list,
	}, nil
}

// RequestWithdrawal reserves amount (the whole balance when omitted) for the
// next payout window. The balance is read inside the same transaction that
// inserts the request.
func (s *SellerService) RequestWithdrawal(ctx context.Context, sellerID uint, req transport.WithdrawalRequestBody) (*transport.WithdrawalCreated, error) {
	l := logging.FromContext(ctx).With("svc", "seller.withdraw")

	now := s.now()
	var w *models.WithdrawalRequest
	err := s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		bal, _, err := balance(ctx, tx, sellerID)
		if err != nil {
			return err
		}
		amount := bal
		if req.Amount != nil {
			amount = util.RoundMoney(*req.Amount)
		}
		if amount <= 0 {
			return validation("invalid amount or insufficient balance")
		}
		if amount > bal+balanceTolerance {
			return validation("insufficient balance")
		}

		due := nextPayoutWindow(now)
		w = &models.WithdrawalRequest{
			SellerID:    sellerID,
			Amount:      amount,
			Status:      models.WithdrawalRequested,
			RequestedAt: now,
			DueDate:     &due,
		}
		if err := tx.CreateWithdrawal(ctx, w); err != nil {
			return err
		}
		if req.PaymentMethod == "" && req.PaymentDetails == "" {
			return nil
		}
		id := w.ID
		return tx.CreatePaymentRecord(ctx, &models.PaymentRecord{
			WithdrawalID: &id,
			Amount:       amount,
			Method:       req.PaymentMethod,
			Details:      req.PaymentDetails,
		})
	})
	if err != nil {
		return nil, err
	}

	l.Info("withdrawal_requested", "withdrawal_id", w.ID, "seller_id", sellerID, "amount", w.Amount)
	s.Updates.Emit(ctx, tenant.ID(ctx), "withdrawal", "requested", map[string]any{"id": w.ID, "amount": w.Amount})
	return &transport.WithdrawalCreated{ID: w.ID, Status: w.Status, Amount: w.Amount, DueDate: *w.DueDate}, nil
}

// CancelWithdrawal withdraws a request that an admin has not acted on yet and
// returns the balance after the release.
func (s *SellerService) CancelWithdrawal(ctx context.Context, sellerID, id uint) (float64, error) {
	err := s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		w, err := tx.LockWithdrawal(ctx, id)
		if err != nil {
			return notFound(err, "withdrawal")
		}
		if w.SellerID != sellerID {
			return fmt.Errorf("%w: withdrawal not found", ErrNotFound)
		}
		if w.Status != models.WithdrawalRequested {
			return validation("cannot cancel withdrawal that is not in requested state")
		}
		return tx.UpdateWithdrawal(ctx, id, map[string]any{"status": models.WithdrawalCancelled})
	})
	if err != nil {
		return 0, err
	}
	bal, _, err := s.Balance(ctx, sellerID)
	return bal, err
}

// Transactions merges sale credits and withdrawal debits, newest first.
func (s *SellerService) Transactions(ctx context.Context, sellerID uint) ([]transport.SellerTransaction, error) {
	sales, err := s.Repo.SellerSales(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	ws, err := s.Repo.WithdrawalsBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.SellerTransaction, 0, len(sales)+len(ws))
	for _, sl := range sales {
		out = append(out, transport.SellerTransaction{
			ID:          fmt.Sprintf("sale-%d", sl.ID),
			Type:        "credit",
			Amount:      sl.Subtotal,
			Date:        sl.CreatedAt,
			Description: "Sale: " + sl.ProductName,
			Status:      "completed",
		})
	}
	for _, w := range ws {
		out = append(out, transport.SellerTransaction{
			ID:          fmt.Sprintf("withdraw-%d", w.ID),
			Type:        "debit",
			Amount:      w.Amount,
			Date:        w.RequestedAt,
			Description: fmt.Sprintf("Withdrawal Request #%d", w.ID),
			Status:      w.Status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *SellerService) AddPurchaseBill(ctx context.Context, sellerID uint, req transport.PurchaseBillRequest) (*models.SellerPurchaseBill, error) {
	if strings.TrimSpace(req.SupplierName) == "" || strings.TrimSpace(req.BillNumber) == "" {
		return nil, validation("supplier_name and bill_number are required")
	}
	if req.TotalAmount < 0 {
		return nil, validation("total_amount must be >= 0")
	}
	b := &models.SellerPurchaseBill{
		SellerID:     sellerID,
		SupplierName: strings.TrimSpace(req.SupplierName),
		BillNumber:   strings.TrimSpace(req.BillNumber),
		TotalAmount:  util.RoundMoney(req.TotalAmount),
		BillDate:     s.now(),
	}
	if req.BillDate != "" {
		d, err := parseDate(req.BillDate)
		if err != nil {
			return nil, validation("invalid bill_date")
		}
		b.BillDate = d
	}
	if err := s.Repo.CreatePurchaseBill(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *SellerService) PurchaseBills(ctx context.Context, sellerID uint) ([]models.SellerPurchaseBill, error) {
	return s.Repo.PurchaseBills(ctx, sellerID)
}

func (s *SellerService) SalesBills(ctx context.Context, sellerID uint) ([]models.SellerSalesBill, error) {
	return s.Repo.SalesBills(ctx, sellerID)
}
