package models

import "github.com/shopspring/decimal"

// TrackerField is a room-defined cost sector such as "Rent" or "Internet".
type TrackerField struct {
	Base
	RoomID      string `gorm:"type:uuid;not null;uniqueIndex:idx_tracker_fields_room_title" json:"room_id"`
	Title       string `gorm:"size:20;not null" json:"title"`
	TitleKey    string `gorm:"size:20;not null;uniqueIndex:idx_tracker_fields_room_title" json:"-"`
	Description string `gorm:"size:30" json:"description"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
}

// MemberTrack is the amount of one cost sector allocated to one member.
type MemberTrack struct {
	Base
	MembershipID   string          `gorm:"type:uuid;not null;uniqueIndex:idx_member_tracks_member_field" json:"membership_id"`
	TrackerFieldID string          `gorm:"type:uuid;not null;uniqueIndex:idx_member_tracks_member_field;index" json:"tracker_field_id"`
	Cost           decimal.Decimal `gorm:"type:decimal(9,2);not null;default:0" json:"cost"`

	Membership   *Membership   `gorm:"foreignKey:MembershipID" json:"membership,omitempty"`
	TrackerField *TrackerField `gorm:"foreignKey:TrackerFieldID" json:"tracker_field,omitempty"`
}
