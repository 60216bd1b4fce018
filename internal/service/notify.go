package service

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// Notifier persists in-app notifications and announces them on the update
// stream.
type Notifier struct {
	Repo    *repo.GormRepo
	Updates *mykafka.Broadcaster
}

func (n *Notifier) Notify(ctx context.Context, userID uint, subject, message string) error {
	return n.NotifyMany(ctx, []uint{userID}, subject, message)
}

func (n *Notifier) NotifyMany(ctx context.Context, userIDs []uint, subject, message string) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.Notification{UserID: id, Subject: subject, Message: message})
	}
	if err := n.Repo.CreateNotifications(ctx, rows); err != nil {
		return err
	}
	for _, row := range rows {
		n.Updates.Emit(ctx, tenant.ID(ctx), "notification", "created", map[string]any{
			"id":      row.ID,
			"user_id": row.UserID,
			"subject": row.Subject,
		})
	}
	return nil
}

// notifyAfterCommit is used once the business change is durable: a failed
// notification is logged, never surfaced.
func (n *Notifier) notifyAfterCommit(ctx context.Context, userIDs []uint, subject, message string) {
	if n == nil {
		return
	}
	if err := n.NotifyMany(ctx, userIDs, subject, message); err != nil {
		logging.FromContext(ctx).Error("notification_failed", "subject", subject, "error", err)
	}
}
