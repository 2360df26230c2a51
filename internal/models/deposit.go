package models

import "github.com/shopspring/decimal"

// CashDepositField is a room-defined deposit category.
type CashDepositField struct {
	Base
	RoomID      string `gorm:"type:uuid;not null;uniqueIndex:idx_deposit_fields_room_title" json:"room_id"`
	Title       string `gorm:"size:20;not null" json:"title"`
	TitleKey    string `gorm:"size:20;not null;uniqueIndex:idx_deposit_fields_room_title" json:"-"`
	Description string `gorm:"size:30" json:"description"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
}

// CashDepositMember is what a member deposited against one field in one month.
type CashDepositMember struct {
	Base
	MembershipID   string          `gorm:"type:uuid;not null;uniqueIndex:idx_deposit_members_key" json:"membership_id"`
	DepositFieldID string          `gorm:"type:uuid;not null;uniqueIndex:idx_deposit_members_key;index" json:"deposit_field_id"`
	Year           int             `gorm:"not null;uniqueIndex:idx_deposit_members_key" json:"year"`
	Month          int             `gorm:"not null;uniqueIndex:idx_deposit_members_key" json:"month"`
	Amount         decimal.Decimal `gorm:"type:decimal(9,2);not null;default:0" json:"amount"`

	Membership   *Membership       `gorm:"foreignKey:MembershipID" json:"membership,omitempty"`
	DepositField *CashDepositField `gorm:"foreignKey:DepositFieldID" json:"deposit_field,omitempty"`
}
