package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShopType distinguishes a member's own purchases from room-managed ones.
type ShopType int

const (
	ShopTypeIndividual ShopType = 0
	ShopTypeMonthly    ShopType = 1
)

// Shopping is a single purchase. Year and Month mirror Date for period queries.
type Shopping struct {
	Base
	RoomID       string              `gorm:"type:uuid;not null;index:idx_shoppings_room_period" json:"room_id"`
	CreatedByID  string              `gorm:"type:uuid;not null;index" json:"created_by_id"`
	Item         string              `gorm:"size:15;not null" json:"item"`
	ItemKey      string              `gorm:"size:15;not null;index" json:"-"`
	Slug         string              `gorm:"uniqueIndex;not null" json:"slug"`
	Quantity     decimal.NullDecimal `gorm:"type:decimal(8,2)" json:"quantity"`
	QuantityUnit *string             `gorm:"size:10" json:"quantity_unit"`
	Cost         decimal.Decimal     `gorm:"type:decimal(8,2);not null" json:"cost"`
	ShopType     ShopType            `gorm:"not null;default:0;index:idx_shoppings_room_period" json:"shop_type"`
	Date         time.Time           `gorm:"not null" json:"date"`
	Year         int                 `gorm:"not null;index:idx_shoppings_room_period" json:"-"`
	Month        int                 `gorm:"not null;index:idx_shoppings_room_period" json:"-"`

	CreatedBy *Membership `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}
