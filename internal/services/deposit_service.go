package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homesteer/internal/clock"
	apperrors "homesteer/internal/errors"
	"homesteer/internal/models"
	"homesteer/internal/slug"
)

var depositKeyColumns = []clause.Column{{Name: "membership_id"}, {Name: "deposit_field_id"}, {Name: "year"}, {Name: "month"}}

// depositService manages cash deposit fields and monthly member deposits.
type depositService struct {
	db         *gorm.DB
	clock      clock.Clock
	suspicious SuspiciousServicer
}

// NewDepositService creates a new DepositServicer.
func NewDepositService(db *gorm.DB, clk clock.Clock, suspicious SuspiciousServicer) DepositServicer {
	return &depositService{db: db, clock: clk, suspicious: suspicious}
}

// CreateField adds a deposit field and a zero deposit for this month for every member.
func (s *depositService) CreateField(actor *ActorContext, input FieldInput) (*models.CashDepositField, error) {
	if actor.Role() != models.RoleManager {
		return nil, deny(s.suspicious, actor)
	}
	title := strings.TrimSpace(input.Title)
	if err := checkFieldInput(title, input.Description); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTitle(actor.Room.ID, title, ""); err != nil {
		return nil, err
	}

	field := &models.CashDepositField{
		RoomID:      actor.Room.ID,
		Title:       title,
		TitleKey:    titleKey(title),
		Description: input.Description,
		Slug:        slug.New(title),
	}
	day := today(s.clock)

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
		rows := make([]models.CashDepositMember, 0, len(memberIDs))
		for _, id := range memberIDs {
			rows = append(rows, models.CashDepositMember{
				MembershipID:   id,
				DepositFieldID: field.ID,
				Year:           day.Year,
				Month:          int(day.Month),
				Amount:         decimal.Zero,
			})
		}
		return tx.Clauses(clause.OnConflict{Columns: depositKeyColumns, DoNothing: true}).Create(&rows).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return field, nil
}

// UpdateField renames a deposit field or changes its description.
func (s *depositService) UpdateField(actor *ActorContext, fieldSlug string, input FieldInput) (*models.CashDepositField, error) {
	if actor.Role() != models.RoleManager {
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
	if err := s.db.Model(&models.CashDepositField{}).Where("id = ?", field.ID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	field.Title = title
	field.TitleKey = titleKey(title)
	field.Description = input.Description
	return field, nil
}

// DeleteField removes a deposit field and every deposit recorded against it.
func (s *depositService) DeleteField(actor *ActorContext, fieldSlug string) error {
	if actor.Role() != models.RoleManager {
		return deny(s.suspicious, actor)
	}

	field, err := s.findField(actor.Room.ID, fieldSlug)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deposit_field_id = ?", field.ID).Delete(&models.CashDepositMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(field).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetFields lists the room's deposit fields, oldest first.
func (s *depositService) GetFields(actor *ActorContext) ([]models.CashDepositField, error) {
	var fields []models.CashDepositField
	if err := s.db.Where("room_id = ?", actor.Room.ID).Order("created_at ASC").Find(&fields).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fields, nil
}

// AssignDeposits records this month's deposits of a member, keyed by field slug.
// Managers only.
func (s *depositService) AssignDeposits(actor *ActorContext, targetSlug string, amounts map[string]decimal.Decimal) ([]models.CashDepositMember, error) {
	if actor.Role() != models.RoleManager {
		return nil, deny(s.suspicious, actor)
	}
	if err := checkAmounts(amounts); err != nil {
		return nil, err
	}

	target, err := findMembershipForMaintainer(s.db, s.suspicious, actor, targetSlug)
	if err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(amounts))
	for k := range amounts {
		slugs = append(slugs, k)
	}
	var fields []models.CashDepositField
	if err := s.db.Where("room_id = ? AND slug IN ?", actor.Room.ID, slugs).Find(&fields).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(fields) != len(slugs) {
		return nil, apperrors.WithMessage(apperrors.ErrFieldNotFound, "One or more deposit fields do not exist in your room")
	}

	day := today(s.clock)
	rows := make([]models.CashDepositMember, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, models.CashDepositMember{
			MembershipID:   target.ID,
			DepositFieldID: f.ID,
			Year:           day.Year,
			Month:          int(day.Month),
			Amount:         amounts[f.Slug],
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   depositKeyColumns,
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var saved []models.CashDepositMember
	if err := s.db.Preload("DepositField").
		Where("membership_id = ? AND year = ? AND month = ?", target.ID, day.Year, int(day.Month)).
		Order("created_at ASC").
		Find(&saved).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return saved, nil
}

// GetDepositChart returns this month's deposits of every member. Any member may read it.
func (s *depositService) GetDepositChart(actor *ActorContext) (*DepositChart, error) {
	day := today(s.clock)

	fields, err := s.GetFields(actor)
	if err != nil {
		return nil, err
	}
	members, err := loadRoomMembers(s.db, actor.Room.ID)
	if err != nil {
		return nil, err
	}

	var deposits []models.CashDepositMember
	if err := s.db.Joins("JOIN cash_deposit_fields ON cash_deposit_fields.id = cash_deposit_members.deposit_field_id").
		Where("cash_deposit_fields.room_id = ? AND cash_deposit_members.year = ? AND cash_deposit_members.month = ?",
			actor.Room.ID, day.Year, int(day.Month)).
		Find(&deposits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	slugByID := make(map[string]string, len(fields))
	for _, f := range fields {
		slugByID[f.ID] = f.Slug
	}
	byMember := make(map[string][]models.CashDepositMember)
	for _, d := range deposits {
		byMember[d.MembershipID] = append(byMember[d.MembershipID], d)
	}

	chart := &DepositChart{
		Year:      day.Year,
		Month:     int(day.Month),
		Fields:    fields,
		Rows:      make([]ChartRow, 0, len(members)),
		RoomTotal: decimal.Zero,
	}
	for i := range members {
		m := &members[i]
		row := ChartRow{MembershipSlug: m.Slug, Username: usernameOf(m), Amounts: make(map[string]decimal.Decimal, len(fields)), Total: decimal.Zero}
		for _, f := range fields {
			row.Amounts[f.Slug] = decimal.Zero
		}
		for _, d := range byMember[m.ID] {
			row.Amounts[slugByID[d.DepositFieldID]] = d.Amount
			row.Total = row.Total.Add(d.Amount)
		}
		chart.RoomTotal = chart.RoomTotal.Add(row.Total)
		chart.Rows = append(chart.Rows, row)
	}
	return chart, nil
}

func (s *depositService) ensureUniqueTitle(roomID, title, exceptID string) error {
	query := s.db.Model(&models.CashDepositField{}).Where("room_id = ? AND title_key = ?", roomID, titleKey(title))
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

func (s *depositService) findField(roomID, fieldSlug string) (*models.CashDepositField, error) {
	var field models.CashDepositField
	if err := s.db.Where("slug = ? AND room_id = ?", fieldSlug, roomID).First(&field).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFieldNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &field, nil
}
