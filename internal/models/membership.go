package models

// Role is a member's permission level inside their room.
type Role int

const (
	RoleMember     Role = 0
	RoleSupervisor Role = 1
	RoleManager    Role = 2
)

// IsMaintainer reports whether the role may maintain shared ledgers.
func (r Role) IsMaintainer() bool {
	return r == RoleSupervisor || r == RoleManager
}

// MaxMaintainers caps Supervisor+Manager memberships per room.
const MaxMaintainers = 6

// Membership ties a user to their single room.
type Membership struct {
	Base
	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	RoomID string `gorm:"type:uuid;index;not null" json:"room_id"`
	Role   Role   `gorm:"default:0" json:"role"`
	Slug   string `gorm:"uniqueIndex;not null" json:"slug"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Room *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}
