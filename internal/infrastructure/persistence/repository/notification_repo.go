package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/httplouis/TraveLink-sub009/internal/application/port"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
)

// NotificationRepository implements the transition-notification outbox
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create writes a pending notification record
func (r *NotificationRepository) Create(ctx context.Context, n *entity.TransitionNotification) error {
	query := `
		INSERT INTO transition_notifications (
			request_id, request_code, notify_role, notify_user, new_status, status
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		n.RequestID,
		n.RequestCode,
		n.NotifyRole,
		n.NotifyUser,
		n.NewStatus,
		n.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// ListPending retrieves undelivered notifications for the delivery collaborator
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*entity.TransitionNotification, error) {
	query := `
		SELECT id, request_id, request_code, notify_role, notify_user, new_status, status, created_at, sent_at
		FROM transition_notifications
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, entity.NotificationStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to list pending notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.TransitionNotification
	for rows.Next() {
		var n entity.TransitionNotification
		var sentAt sql.NullTime

		err := rows.Scan(&n.ID, &n.RequestID, &n.RequestCode, &n.NotifyRole, &n.NotifyUser, &n.NewStatus, &n.Status, &n.CreatedAt, &sentAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkSent marks a notification as delivered
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE transition_notifications
		SET status = ?, sent_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusSent, id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
