package services

import (
	"context"
	"fmt"
	"time"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 200
)

type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}

// ListNotifications returns the user's notifications, newest first.
func ListNotifications(ctx context.Context, userID uuid.UUID, filter NotificationFilter) ([]models.Notification, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}

	query := db.DB.WithContext(ctx).Where("recipient_id = ?", userID)
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	notifications := []models.Notification{}
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

func UnreadNotificationCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkAllNotificationsRead returns how many notifications changed.
func MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := db.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) (models.Notification, error) {
	var notification models.Notification

	err := db.DB.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, userID).
		First(&notification).Error
	if err != nil {
		return notification, lookupErr(err, "notification")
	}

	if !notification.IsRead {
		if err := db.DB.WithContext(ctx).Model(&notification).Update("is_read", true).Error; err != nil {
			return notification, fmt.Errorf("failed to mark notification read: %w", err)
		}
		notification.IsRead = true
	}

	return notification, nil
}

// DeleteReadNotificationsBefore removes read notifications created before cutoff.
func DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := db.DB.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// notify inserts one notification per recipient inside tx.
func notify(tx *gorm.DB, recipients []uuid.UUID, senderID *uuid.UUID, workspaceID *uuid.UUID, kind, message string) error {
	if len(recipients) == 0 {
		return nil
	}

	rows := make([]models.Notification, 0, len(recipients))
	for _, id := range recipients {
		rows = append(rows, models.Notification{
			RecipientID: id,
			SenderID:    senderID,
			WorkspaceID: workspaceID,
			Type:        kind,
			Message:     message,
		})
	}

	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	return nil
}
