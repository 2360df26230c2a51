package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homesteer/internal/clock"
	apperrors "homesteer/internal/errors"
	"homesteer/internal/models"
	"homesteer/internal/slug"
)

const (
	maxRoomTitleLen       = 50
	maxRoomDescriptionLen = 250
)

// membershipService resolves actors and manages the room lifecycle.
type membershipService struct {
	db         *gorm.DB
	clock      clock.Clock
	suspicious SuspiciousServicer
}

// NewMembershipService creates a new MembershipServicer.
func NewMembershipService(db *gorm.DB, clk clock.Clock, suspicious SuspiciousServicer) MembershipServicer {
	return &membershipService{db: db, clock: clk, suspicious: suspicious}
}

// ResolveActor loads the user's membership together with their room.
func (s *membershipService) ResolveActor(userID string) (*ActorContext, error) {
	var membership models.Membership
	if err := s.db.Preload("User").Preload("Room").
		Where("user_id = ?", userID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if membership.Room == nil || !membership.Room.IsActive {
		return nil, apperrors.ErrRoomNotFound
	}
	if membership.User == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return &ActorContext{User: membership.User, Membership: &membership, Room: membership.Room}, nil
}

// CreateRoom creates a room with the user as its creator and manager.
func (s *membershipService) CreateRoom(userID, title, description string, privacy models.RoomPrivacy) (*models.Room, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxRoomTitleLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("Room title must be 1-%d characters", maxRoomTitleLen))
	}
	if len(description) > maxRoomDescriptionLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("Description must be at most %d characters", maxRoomDescriptionLen))
	}
	if privacy != models.RoomPrivacyPublic && privacy != models.RoomPrivacySecret {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown privacy setting")
	}

	user, err := s.loadFreeUser(userID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Room{}).Where("title_key = ?", titleKey(title)).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateTitle,
			fmt.Sprintf("%q room is already exists ! Please try another one.", title))
	}

	room := &models.Room{
		Title:       title,
		TitleKey:    titleKey(title),
		Slug:        slug.New(title),
		IsActive:    true,
		Privacy:     privacy,
		Description: description,
		CreatorID:   user.ID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		setting := &models.ManagerialSetting{RoomID: room.ID, ShoppingType: models.ShoppingTypeIndividual, IsCUDAble: true}
		if err := tx.Create(setting).Error; err != nil {
			return err
		}
		room.Setting = setting

		membership := &models.Membership{
			UserID: user.ID,
			RoomID: room.ID,
			Role:   models.RoleManager,
			Slug:   slug.New(user.Username),
		}
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		_, err := ensureMonthPlaceholders(tx, room.ID, today(s.clock))
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return room, nil
}

// JoinRoom adds the user to a room as a plain member and seeds their ledger rows.
func (s *membershipService) JoinRoom(userID, roomSlug string) (*models.Membership, error) {
	user, err := s.loadFreeUser(userID)
	if err != nil {
		return nil, err
	}

	var room models.Room
	if err := s.db.Where("slug = ? AND is_active = ?", roomSlug, true).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRoomNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	membership := &models.Membership{
		UserID: user.ID,
		RoomID: room.ID,
		Role:   models.RoleMember,
		Slug:   slug.New(user.Username),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		return seedMemberRows(tx, membership, today(s.clock))
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	membership.User = user
	membership.Room = &room
	return membership, nil
}

// seedMemberRows creates the zero-valued ledger rows a new member needs: one
// MemberTrack per cost sector, one CashDepositMember per deposit field for the
// current month, and meal placeholders for the month.
func seedMemberRows(tx *gorm.DB, membership *models.Membership, day clock.Date) error {
	var trackerFields []models.TrackerField
	if err := tx.Where("room_id = ?", membership.RoomID).Find(&trackerFields).Error; err != nil {
		return err
	}
	if len(trackerFields) > 0 {
		tracks := make([]models.MemberTrack, 0, len(trackerFields))
		for _, f := range trackerFields {
			tracks = append(tracks, models.MemberTrack{MembershipID: membership.ID, TrackerFieldID: f.ID, Cost: decimal.Zero})
		}
		if err := tx.Create(&tracks).Error; err != nil {
			return err
		}
	}

	var depositFields []models.CashDepositField
	if err := tx.Where("room_id = ?", membership.RoomID).Find(&depositFields).Error; err != nil {
		return err
	}
	if len(depositFields) > 0 {
		deposits := make([]models.CashDepositMember, 0, len(depositFields))
		for _, f := range depositFields {
			deposits = append(deposits, models.CashDepositMember{
				MembershipID:   membership.ID,
				DepositFieldID: f.ID,
				Year:           day.Year,
				Month:          int(day.Month),
				Amount:         decimal.Zero,
			})
		}
		if err := tx.Create(&deposits).Error; err != nil {
			return err
		}
	}

	_, err := ensureMonthPlaceholders(tx, membership.RoomID, day)
	return err
}

// GetRoomMembers lists the actor's room members, oldest first.
func (s *membershipService) GetRoomMembers(actor *ActorContext) ([]models.Membership, error) {
	return loadRoomMembers(s.db, actor.Room.ID)
}

// GetMemberBySlug returns a membership in the actor's room.
func (s *membershipService) GetMemberBySlug(actor *ActorContext, memberSlug string) (*models.Membership, error) {
	return findRoomMember(s.db, actor.Room.ID, memberSlug)
}

func findRoomMember(db *gorm.DB, roomID, memberSlug string) (*models.Membership, error) {
	var member models.Membership
	if err := db.Preload("User").
		Where("slug = ? AND room_id = ?", memberSlug, roomID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &member, nil
}

// UpdateRole changes a member's role. Only managers may do so, and a room holds
// at most MaxMaintainers supervisors and managers.
func (s *membershipService) UpdateRole(actor *ActorContext, memberSlug string, role models.Role) (*models.Membership, error) {
	if role != models.RoleMember && !role.IsMaintainer() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown role")
	}
	if actor.Role() != models.RoleManager {
		return nil, deny(s.suspicious, actor)
	}

	member, err := findRoomMember(s.db, actor.Room.ID, memberSlug)
	if err != nil {
		return nil, err
	}
	if member.UserID == actor.Room.CreatorID && role != models.RoleManager {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "The room creator must stay a manager")
	}

	if !member.Role.IsMaintainer() && role.IsMaintainer() {
		var maintainers int64
		if err := s.db.Model(&models.Membership{}).
			Where("room_id = ? AND role IN ?", actor.Room.ID, []models.Role{models.RoleSupervisor, models.RoleManager}).
			Count(&maintainers).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if maintainers >= models.MaxMaintainers {
			return nil, apperrors.ErrMaintainerLimit
		}
	}

	if err := s.db.Model(&models.Membership{}).Where("id = ?", member.ID).Update("role", role).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	member.Role = role
	return member, nil
}

// GetSetting returns the room's managerial setting, creating the default if missing.
func (s *membershipService) GetSetting(roomID string) (*models.ManagerialSetting, error) {
	return loadSetting(s.db, roomID)
}

func loadSetting(db *gorm.DB, roomID string) (*models.ManagerialSetting, error) {
	setting := models.ManagerialSetting{RoomID: roomID, ShoppingType: models.ShoppingTypeIndividual, IsCUDAble: true}
	if err := db.Where("room_id = ?", roomID).FirstOrCreate(&setting).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &setting, nil
}

// SetShoppingType switches which shopping lane is authoritative for room totals.
func (s *membershipService) SetShoppingType(actor *ActorContext, shoppingType models.ShoppingType) (*models.ManagerialSetting, error) {
	if shoppingType != models.ShoppingTypeIndividual && shoppingType != models.ShoppingTypeManager {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown shopping type")
	}
	if actor.Role() != models.RoleManager {
		return nil, deny(s.suspicious, actor)
	}

	setting, err := loadSetting(s.db, actor.Room.ID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(setting).Update("shopping_type", shoppingType).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	setting.ShoppingType = shoppingType
	return setting, nil
}

// loadFreeUser returns the user when they do not belong to any room yet.
func (s *membershipService) loadFreeUser(userID string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := s.db.Model(&models.Membership{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrAlreadyMember
	}
	return &user, nil
}
