package services

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "homesteer/internal/errors"
	"homesteer/internal/models"
	"homesteer/internal/pagination"
	"homesteer/internal/slug"
)

// notificationService stores the per-user notification feed.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

// Notify records event. A previous notification with the same sender, type and
// identifier is reused: its receiver and message are replaced, the counter is
// bumped and it becomes unseen again.
func (s *notificationService) Notify(tx *gorm.DB, event NotifyEvent) error {
	if tx == nil {
		tx = s.db
	}

	var existing models.Notification
	err := tx.Where("sender_id = ? AND notify_type = ? AND identifier = ?", event.SenderID, event.Type, event.Identifier).
		First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"receiver_id":     event.ReceiverID,
			"room_identifier": event.RoomIdentifier,
			"message":         event.Message,
			"counter":         gorm.Expr("counter + ?", 1),
			"is_seen":         false,
		}
		if event.Meta != nil {
			updates["meta"] = datatypes.JSONMap(event.Meta)
		}
		return tx.Model(&existing).Updates(updates).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		notification := &models.Notification{
			SenderID:       event.SenderID,
			ReceiverID:     event.ReceiverID,
			Slug:           slug.New(string(event.Type)),
			Category:       models.NotificationCategoryMessage,
			NotifyType:     event.Type,
			Identifier:     event.Identifier,
			RoomIdentifier: event.RoomIdentifier,
			Counter:        1,
			Message:        event.Message,
			Meta:           datatypes.JSONMap(event.Meta),
		}
		return tx.Create(notification).Error
	default:
		return err
	}
}

// Retract removes notifications emitted by sender for identifier.
func (s *notificationService) Retract(tx *gorm.DB, senderID string, notifyType models.NotifyType, identifier string) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Where("sender_id = ? AND notify_type = ? AND identifier = ?", senderID, notifyType, identifier).
		Delete(&models.Notification{}).Error
}

// GetUserNotifications returns the user's feed, newest first.
func (s *notificationService) GetUserNotifications(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	query := s.db.Model(&models.Notification{}).
		Where("receiver_id = ?", userID).
		Order("updated_at DESC")

	resp, err := pagination.Fetch[models.Notification](query, page, "Sender")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return resp, nil
}
