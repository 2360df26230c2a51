package models

import "gorm.io/datatypes"

// NotifyType names the ledger transition a notification reports.
type NotifyType string

const (
	NotifyMealUpdate          NotifyType = "meal_update"
	NotifyMealUpdateConfirmed NotifyType = "meal_update_confirmed"
	NotifyMealRequestCancel   NotifyType = "meal_request_cancel"
	NotifyMealUpdateByManager NotifyType = "meal_update_by_maintainer"
)

// NotificationCategoryMessage is the only category the ledgers emit.
const NotificationCategoryMessage = "message"

// Notification is a feed entry for Receiver. Repeats of the same event bump Counter.
type Notification struct {
	Base
	SenderID       string            `gorm:"type:uuid;not null;index" json:"sender_id"`
	ReceiverID     string            `gorm:"type:uuid;not null;index" json:"receiver_id"`
	Slug           string            `gorm:"uniqueIndex;not null" json:"slug"`
	Category       string            `gorm:"size:20;not null" json:"category"`
	NotifyType     NotifyType        `gorm:"size:40;not null;index" json:"notify_type"`
	Identifier     string            `gorm:"index" json:"identifier"`
	RoomIdentifier string            `json:"room_identifier"`
	Counter        int               `gorm:"not null;default:1" json:"counter"`
	Message        string            `gorm:"size:300" json:"message"`
	IsSeen         bool              `gorm:"not null;default:false" json:"is_seen"`
	Meta           datatypes.JSONMap `json:"meta,omitempty"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
