package models

// RoomPrivacy controls whether a room shows up in public listings.
type RoomPrivacy int

const (
	RoomPrivacyPublic RoomPrivacy = 0
	RoomPrivacySecret RoomPrivacy = 1
)

// Room is the tenant boundary. Every ledger row belongs to exactly one room.
type Room struct {
	Base
	Title       string      `gorm:"size:50;not null" json:"title"`
	TitleKey    string      `gorm:"size:50;uniqueIndex;not null" json:"-"`
	Slug        string      `gorm:"uniqueIndex;not null" json:"slug"`
	IsActive    bool        `gorm:"default:true" json:"is_active"`
	Privacy     RoomPrivacy `gorm:"default:0" json:"privacy"`
	Description string      `gorm:"size:250" json:"description"`
	CreatorID   string      `gorm:"type:uuid;uniqueIndex;not null" json:"creator_id"`

	Creator *User              `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Setting *ManagerialSetting `gorm:"foreignKey:RoomID" json:"setting,omitempty"`
}

// ShoppingType selects which shopping lane is authoritative for a room's totals.
type ShoppingType int

const (
	// ShoppingTypeIndividual counts individual and monthly shopping together.
	ShoppingTypeIndividual ShoppingType = 0
	// ShoppingTypeManager counts only the manager-run monthly shopping.
	ShoppingTypeManager ShoppingType = 1
)

// ManagerialSetting holds per-room ledger configuration. There is exactly one per room.
type ManagerialSetting struct {
	Base
	RoomID       string       `gorm:"type:uuid;uniqueIndex;not null" json:"room_id"`
	ShoppingType ShoppingType `gorm:"default:0" json:"shopping_type"`
	IsCUDAble    bool         `gorm:"column:is_cud_able;default:true" json:"is_cud_able"`
}
