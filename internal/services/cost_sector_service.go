package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "homesteer/internal/errors"
	"homesteer/internal/models"
	"homesteer/internal/slug"
)

// costSectorService manages room cost sectors and per-member allocations.
type costSectorService struct {
	db         *gorm.DB
	suspicious SuspiciousServicer
}

// NewCostSectorService creates a new CostSectorServicer.
func NewCostSectorService(db *gorm.DB, suspicious SuspiciousServicer) CostSectorServicer {
	return &costSectorService{db: db, suspicious: suspicious}
}

// canEditFields reports whether the actor may create, update or delete cost sectors.
func canEditFields(actor *ActorContext) bool {
	return actor.Role() == models.RoleManager || actor.IsRoomCreator()
}

// CreateField adds a cost sector and a zero allocation for every room member.
func (s *costSectorService) CreateField(actor *ActorContext, input FieldInput) (*models.TrackerField, error) {
	if !canEditFields(actor) {
		return nil, deny(s.suspicious, actor)
	}
	title := strings.TrimSpace(input.Title)
	if err := checkFieldInput(title, input.Description); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTitle(actor.Room.ID, title, ""); err != nil {
		return nil, err
	}

	field := &models.TrackerField{
		RoomID:      actor.Room.ID,
		Title:       title,
		TitleKey:    titleKey(title),
		Description: input.Description,
		Slug:        slug.New(title),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(field).Error; err != nil {
			return err
		}

		var memberIDs []string
		if err := tx.Model(&models.Membership{}).Where("room_id = ?", actor.Room.ID).Pluck("id", &memberIDs).Error; err != nil {
			return err
		}
		if len(memberIDs) == 0 {
			return nil
		}
		tracks := make([]models.MemberTrack, 0, len(memberIDs))
		for _, id := range memberIDs {
			tracks = append(tracks, models.MemberTrack{MembershipID: id, TrackerFieldID: field.ID, Cost: decimal.Zero})
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "membership_id"}, {Name: "tracker_field_id"}},
			DoNothing: true,
		}).Create(&tracks).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return field, nil
}

// UpdateField renames a cost sector or changes its description.
func (s *costSectorService) UpdateField(actor *ActorContext, fieldSlug string, input FieldInput) (*models.TrackerField, error) {
	if !canEditFields(actor) {
		return nil, deny(s.suspicious, actor)
	}
	title := strings.TrimSpace(input.Title)
	if err := checkFieldInput(title, input.Description); err != nil {
		return nil, err
	}

	field, err := s.findField(actor.Room.ID, fieldSlug)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTitle(actor.Room.ID, title, field.ID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":       title,
		"title_key":   titleKey(title),
		"description": input.Description,
	}
	if err := s.db.Model(&models.TrackerField{}).Where("id = ?", field.ID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	field.Title = title
	field.TitleKey = titleKey(title)
	field.Description = input.Description
	return field, nil
}

// DeleteField removes a cost sector together with its member allocations.
func (s *costSectorService) DeleteField(actor *ActorContext, fieldSlug string) error {
	if !canEditFields(actor) {
		return deny(s.suspicious, actor)
	}

	field, err := s.findField(actor.Room.ID, fieldSlug)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tracker_field_id = ?", field.ID).Delete(&models.MemberTrack{}).Error; err != nil {
			return err
		}
		return tx.Delete(field).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetFields lists the room's cost sectors, oldest first.
func (s *costSectorService) GetFields(actor *ActorContext) ([]models.TrackerField, error) {
	var fields []models.TrackerField
	if err := s.db.Where("room_id = ?", actor.Room.ID).Order("created_at ASC").Find(&fields).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fields, nil
}

// AssignCosts sets a member's allocation for each field slug in amounts.
// Supervisors and managers of the target's room may assign.
func (s *costSectorService) AssignCosts(actor *ActorContext, targetSlug string, amounts map[string]decimal.Decimal) ([]models.MemberTrack, error) {
	if !actor.Role().IsMaintainer() {
		return nil, deny(s.suspicious, actor)
	}
	if err := checkAmounts(amounts); err != nil {
		return nil, err
	}

	target, err := findMembershipForMaintainer(s.db, s.suspicious, actor, targetSlug)
	if err != nil {
		return nil, err
	}

	fields, err := s.fieldsBySlug(actor.Room.ID, amounts)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.MemberTrack, 0, len(fields))
	for _, f := range fields {
		tracks = append(tracks, models.MemberTrack{MembershipID: target.ID, TrackerFieldID: f.ID, Cost: amounts[f.Slug]})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "membership_id"}, {Name: "tracker_field_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"cost", "updated_at"}),
		}).Create(&tracks).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var saved []models.MemberTrack
	if err := s.db.Preload("TrackerField").
		Where("membership_id = ?", target.ID).
		Order("created_at ASC").
		Find(&saved).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return saved, nil
}

// GetCostChart returns the allocation matrix of the room. Supervisors and managers only.
func (s *costSectorService) GetCostChart(actor *ActorContext) (*CostChart, error) {
	if !actor.Role().IsMaintainer() {
		return nil, deny(s.suspicious, actor)
	}

	fields, err := s.GetFields(actor)
	if err != nil {
		return nil, err
	}
	members, err := loadRoomMembers(s.db, actor.Room.ID)
	if err != nil {
		return nil, err
	}

	var tracks []models.MemberTrack
	if err := s.db.Joins("JOIN tracker_fields ON tracker_fields.id = member_tracks.tracker_field_id").
		Where("tracker_fields.room_id = ?", actor.Room.ID).
		Find(&tracks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	slugByID := make(map[string]string, len(fields))
	for _, f := range fields {
		slugByID[f.ID] = f.Slug
	}
	byMember := make(map[string][]models.MemberTrack)
	for _, t := range tracks {
		byMember[t.MembershipID] = append(byMember[t.MembershipID], t)
	}

	chart := &CostChart{Fields: fields, Rows: make([]ChartRow, 0, len(members)), RoomTotal: decimal.Zero}
	for i := range members {
		m := &members[i]
		row := ChartRow{MembershipSlug: m.Slug, Username: usernameOf(m), Amounts: make(map[string]decimal.Decimal, len(fields)), Total: decimal.Zero}
		for _, f := range fields {
			row.Amounts[f.Slug] = decimal.Zero
		}
		for _, t := range byMember[m.ID] {
			row.Amounts[slugByID[t.TrackerFieldID]] = t.Cost
			row.Total = row.Total.Add(t.Cost)
		}
		chart.RoomTotal = chart.RoomTotal.Add(row.Total)
		chart.Rows = append(chart.Rows, row)
	}
	return chart, nil
}

// ensureUniqueTitle fails when another field of the room already uses title.
func (s *costSectorService) ensureUniqueTitle(roomID, title, exceptID string) error {
	query := s.db.Model(&models.TrackerField{}).Where("room_id = ? AND title_key = ?", roomID, titleKey(title))
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return duplicateFieldTitle(title)
	}
	return nil
}

func (s *costSectorService) findField(roomID, fieldSlug string) (*models.TrackerField, error) {
	var field models.TrackerField
	if err := s.db.Where("slug = ? AND room_id = ?", fieldSlug, roomID).First(&field).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFieldNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &field, nil
}

// fieldsBySlug loads the room's fields named in amounts. Every slug must resolve.
func (s *costSectorService) fieldsBySlug(roomID string, amounts map[string]decimal.Decimal) ([]models.TrackerField, error) {
	slugs := make([]string, 0, len(amounts))
	for k := range amounts {
		slugs = append(slugs, k)
	}

	var fields []models.TrackerField
	if err := s.db.Where("room_id = ? AND slug IN ?", roomID, slugs).Find(&fields).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(fields) != len(slugs) {
		return nil, apperrors.WithMessage(apperrors.ErrFieldNotFound, "One or more cost sectors do not exist in your room")
	}
	return fields, nil
}
