package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/granthub/granthub-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationService handles in-app user notifications
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	UserID   uint
	Type     model.NotificationType
	Category model.NotificationCategory
	Title    string
	Message  string
	Link     string
	Metadata map[string]interface{}
}

// ListNotificationsOptions represents options for listing notifications
type ListNotificationsOptions struct {
	UserID     uint
	UnreadOnly bool
	Category   string
	Limit      int
	Offset     int
}

// CreateNotification creates a new notification for a user
func (s *NotificationService) CreateNotification(ctx context.Context, req CreateNotificationRequest) (*model.Notification, error) {
	notification := &model.Notification{
		UserID:   req.UserID,
		Type:     req.Type,
		Category: req.Category,
		Title:    req.Title,
		Message:  req.Message,
		Link:     req.Link,
		Read:     false,
	}

	if req.Metadata != nil {
		metadataJSON, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(metadataJSON)
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	log.Printf("Created notification %d for user %d: %s", notification.ID, req.UserID, req.Title)
	return notification, nil
}

// GetNotificationsByUser retrieves notifications for a user
func (s *NotificationService) GetNotificationsByUser(ctx context.Context, opts ListNotificationsOptions) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ?", opts.UserID)

	if opts.UnreadOnly {
		query = query.Where("read = ?", false)
	}

	if opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	} else {
		query = query.Limit(50)
	}

	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkAsRead marks a notification as read
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uint, userID uint) error {
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)

	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAllAsRead marks all notifications for a user as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// DeleteNotification deletes a notification owned by the user
func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID uint, userID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&model.Notification{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteAllNotifications deletes all notifications for a user
func (s *NotificationService) DeleteAllNotifications(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.Notification{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete all notifications: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// GetUnreadCount returns the count of unread notifications for a user
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// CleanupOldNotifications removes read notifications older than the given duration
func (s *NotificationService) CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result := s.db.WithContext(ctx).
		Where("created_at < ? AND read = ?", cutoff, true).
		Delete(&model.Notification{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup old notifications: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d old notifications", result.RowsAffected)
	}

	return result.RowsAffected, nil
}
