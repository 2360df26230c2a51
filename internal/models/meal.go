package models

import (
	"time"

	"github.com/shopspring/decimal"

	"homesteer/internal/clock"
)

// Meal is one member's meal count for one calendar day. A row with null values
// is a placeholder created by the month backfill.
type Meal struct {
	Base
	MembershipID   string              `gorm:"type:uuid;not null;uniqueIndex:idx_meals_member_day" json:"membership_id"`
	Year           int                 `gorm:"not null;uniqueIndex:idx_meals_member_day;index:idx_meals_period" json:"year"`
	Month          int                 `gorm:"not null;uniqueIndex:idx_meals_member_day;index:idx_meals_period" json:"month"`
	Day            int                 `gorm:"not null;uniqueIndex:idx_meals_member_day" json:"day"`
	Slug           string              `gorm:"uniqueIndex;not null" json:"slug"`
	MealToday      decimal.NullDecimal `gorm:"type:decimal(4,2)" json:"meal_today"`
	MealNextDay    decimal.NullDecimal `gorm:"type:decimal(4,2)" json:"meal_next_day"`
	AutoEntry      bool                `gorm:"not null;default:false" json:"auto_entry"`
	AutoEntryValue decimal.NullDecimal `gorm:"type:decimal(4,2)" json:"auto_entry_value"`
	ConfirmedByID  *string             `gorm:"type:uuid" json:"confirmed_by_id,omitempty"`

	Membership  *Membership `gorm:"foreignKey:MembershipID" json:"membership,omitempty"`
	ConfirmedBy *Membership `gorm:"foreignKey:ConfirmedByID" json:"confirmed_by,omitempty"`
}

// Date returns the calendar day the row describes.
func (m *Meal) Date() clock.Date {
	return clock.Date{Year: m.Year, Month: time.Month(m.Month), Day: m.Day}
}

// MealUpdateRequest asks another member to approve a new meal_today value.
// A meal has at most one pending request; the slug mirrors the meal slug.
type MealUpdateRequest struct {
	Base
	MealID        string          `gorm:"type:uuid;uniqueIndex;not null" json:"meal_id"`
	Slug          string          `gorm:"uniqueIndex;not null" json:"slug"`
	RequestedByID string          `gorm:"type:uuid;not null;index" json:"requested_by_id"`
	RequestToID   string          `gorm:"type:uuid;not null;index" json:"request_to_id"`
	MealShouldBe  decimal.Decimal `gorm:"type:decimal(4,2);not null" json:"meal_should_be"`

	Meal        *Meal       `gorm:"foreignKey:MealID" json:"meal,omitempty"`
	RequestedBy *Membership `gorm:"foreignKey:RequestedByID" json:"requested_by,omitempty"`
	RequestTo   *Membership `gorm:"foreignKey:RequestToID" json:"request_to,omitempty"`
}
