package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homesteer/internal/clock"
	apperrors "homesteer/internal/errors"
	"homesteer/internal/logger"
	"homesteer/internal/models"
	"homesteer/internal/slug"
)

// AutoEntryRejectedWarning is returned with a meal write when auto entry was
// asked for during the last two days of a month.
const AutoEntryRejectedWarning = "Auto entry is not workable in last two days of month! Please change it from next month."

var (
	maxMealValue = decimal.RequireFromString("99.99")

	mealKeyColumns = []clause.Column{{Name: "membership_id"}, {Name: "year"}, {Name: "month"}, {Name: "day"}}
)

// mealService maintains one meal row per member per day and the change-request workflow.
type mealService struct {
	db         *gorm.DB
	clock      clock.Clock
	notifier   NotificationServicer
	suspicious SuspiciousServicer
}

// NewMealService creates a new MealServicer.
func NewMealService(db *gorm.DB, clk clock.Clock, notifier NotificationServicer, suspicious SuspiciousServicer) MealServicer {
	return &mealService{db: db, clock: clk, notifier: notifier, suspicious: suspicious}
}

// CreateTodayEntry records today's meal, seeds tomorrow from meal_next_day and
// optionally turns on auto entry for the rest of the month.
func (s *mealService) CreateTodayEntry(actor *ActorContext, input MealEntryInput) (*MealEntryResult, error) {
	day, err := s.guard()
	if err != nil {
		return nil, err
	}
	if err := validateMealValues(input.MealToday, input.MealNextDay); err != nil {
		return nil, err
	}
	if input.AutoEntryValue != nil {
		if err := validateMealValues(*input.AutoEntryValue); err != nil {
			return nil, err
		}
	}

	var filled int64
	if err := s.db.Model(&models.Meal{}).
		Where("membership_id = ? AND year = ? AND month = ? AND day = ? AND meal_today IS NOT NULL",
			actor.Membership.ID, day.Year, int(day.Month), day.Day).
		Count(&filled).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if filled > 0 {
		return nil, apperrors.ErrMealEntryExists
	}

	auto, warning := resolveAutoEntry(day, input.AutoEntryValue)
	member := actor.Membership
	username := actor.User.Username

	err = s.db.Transaction(func(tx *gorm.DB) error {
		todayRow := newMealRow(member.ID, username, day)
		todayRow.MealToday = decimal.NewNullDecimal(input.MealToday)
		todayRow.MealNextDay = decimal.NewNullDecimal(input.MealNextDay)
		setAutoEntry(todayRow, auto)
		todayRow.ConfirmedByID = &member.ID
		if err := upsertMeals(tx, []*models.Meal{todayRow},
			"meal_today", "meal_next_day", "auto_entry", "auto_entry_value", "confirmed_by_id"); err != nil {
			return err
		}

		if err := s.writeTomorrow(tx, member.ID, username, day, input.MealNextDay, auto); err != nil {
			return err
		}
		if auto != nil {
			if err := applyAutoEntry(tx, member.ID, username, day, *auto); err != nil {
				return err
			}
		}
		return backfill(tx, member.RoomID, day)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.entryResult(member.ID, day, warning)
}

// UpdateTodayEntry changes tomorrow's declared meal and the auto entry setting.
func (s *mealService) UpdateTodayEntry(actor *ActorContext, input MealUpdateInput) (*MealEntryResult, error) {
	day, err := s.guard()
	if err != nil {
		return nil, err
	}
	if err := validateMealValues(input.MealNextDay); err != nil {
		return nil, err
	}
	if input.AutoEntryValue != nil {
		if err := validateMealValues(*input.AutoEntryValue); err != nil {
			return nil, err
		}
	}

	member := actor.Membership
	username := actor.User.Username

	current, err := loadMealOn(s.db, member.ID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoMealEntryToday
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !current.MealToday.Valid {
		return nil, apperrors.ErrNoMealEntryToday
	}

	auto, warning := resolveAutoEntry(day, input.AutoEntryValue)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"meal_next_day":    decimal.NewNullDecimal(input.MealNextDay),
			"auto_entry":       auto != nil,
			"auto_entry_value": nullDecimal(auto),
		}
		if err := tx.Model(&models.Meal{}).Where("id = ?", current.ID).Updates(updates).Error; err != nil {
			return err
		}

		if err := s.writeTomorrow(tx, member.ID, username, day, input.MealNextDay, auto); err != nil {
			return err
		}
		if auto != nil {
			if err := applyAutoEntry(tx, member.ID, username, day, *auto); err != nil {
				return err
			}
		} else if err := clearAutoEntry(tx, member.ID, day); err != nil {
			return err
		}
		return backfill(tx, member.RoomID, day)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.entryResult(member.ID, day, warning)
}

// GetTodayEntry returns the actor's filled meal row for today.
func (s *mealService) GetTodayEntry(actor *ActorContext) (*models.Meal, error) {
	meal, err := loadMealOn(s.db, actor.Membership.ID, today(s.clock))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMealNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !meal.MealToday.Valid {
		return nil, apperrors.ErrMealNotFound
	}
	return meal, nil
}

// AdminOverrideEntry lets a manager overwrite another member's meal for today.
func (s *mealService) AdminOverrideEntry(actor *ActorContext, mealSlug string, mealToday decimal.Decimal) (*models.Meal, error) {
	day, err := s.guard()
	if err != nil {
		return nil, err
	}
	if err := validateMealValues(mealToday); err != nil {
		return nil, err
	}

	meal, err := s.findMeal(mealSlug)
	if err != nil {
		return nil, err
	}
	if actor.Role() != models.RoleManager || meal.Membership.RoomID != actor.Room.ID {
		return nil, deny(s.suspicious, actor)
	}
	if meal.MembershipID == actor.Membership.ID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Use the regular meal entry to change your own meal")
	}
	if meal.Date() != day {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Only today's meal can be overridden")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Meal{}).Where("id = ?", meal.ID).Updates(map[string]interface{}{
			"meal_today":      decimal.NewNullDecimal(mealToday),
			"confirmed_by_id": actor.Membership.ID,
		}).Error; err != nil {
			return err
		}
		return s.notifier.Notify(tx, NotifyEvent{
			SenderID:       actor.User.ID,
			ReceiverID:     meal.Membership.UserID,
			Type:           models.NotifyMealUpdateByManager,
			Identifier:     meal.Slug,
			RoomIdentifier: actor.Room.Slug,
			Message:        fmt.Sprintf("updated your meal of %s and changed it to %s.", meal.Date().Format(), mealToday.String()),
			Meta:           map[string]interface{}{"meal_today": mealToday.String()},
		})
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.findMeal(mealSlug)
}

// RequestCandidates lists the members the actor may ask to approve a meal change.
func (s *mealService) RequestCandidates(actor *ActorContext) ([]models.Membership, error) {
	members, err := loadRoomMembers(s.db, actor.Room.ID)
	if err != nil {
		return nil, err
	}
	return requestCandidates(actor, members), nil
}

func requestCandidates(actor *ActorContext, members []models.Membership) []models.Membership {
	if len(members) < 2 {
		return members
	}

	maintainers := make([]models.Membership, 0, len(members))
	others := make([]models.Membership, 0, len(members))
	for _, m := range members {
		if m.ID == actor.Membership.ID {
			continue
		}
		others = append(others, m)
		if m.Role.IsMaintainer() {
			maintainers = append(maintainers, m)
		}
	}

	if actor.Role() == models.RoleMember || len(maintainers) > 0 {
		return maintainers
	}
	return others
}

// RequestChange asks another member to approve a new meal_today for one of the
// actor's meals. An existing request for the same meal is replaced.
func (s *mealService) RequestChange(actor *ActorContext, mealSlug string, mealShouldBe decimal.Decimal, requestToSlug string) (*models.MealUpdateRequest, error) {
	day, err := s.guard()
	if err != nil {
		return nil, err
	}
	if err := validateMealValues(mealShouldBe); err != nil {
		return nil, err
	}

	meal, err := s.findMeal(mealSlug)
	if err != nil {
		return nil, err
	}
	if meal.MembershipID != actor.Membership.ID {
		return nil, deny(s.suspicious, actor)
	}
	if dayAfter(meal.Date(), day) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "You can only request changes for today or earlier days")
	}

	target, err := findRoomMember(s.db, actor.Room.ID, requestToSlug)
	if err != nil {
		return nil, err
	}
	candidates, err := s.RequestCandidates(actor)
	if err != nil {
		return nil, err
	}
	if !containsMembership(candidates, target.ID) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "You cannot send this request to that member")
	}

	request := &models.MealUpdateRequest{
		MealID:        meal.ID,
		Slug:          meal.Slug,
		RequestedByID: actor.Membership.ID,
		RequestToID:   target.ID,
		MealShouldBe:  mealShouldBe,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var previous models.MealUpdateRequest
		err := tx.Where("meal_id = ?", meal.ID).First(&previous).Error
		switch {
		case err == nil:
			if err := tx.Delete(&previous).Error; err != nil {
				return err
			}
			if err := s.notifier.Retract(tx, actor.User.ID, models.NotifyMealUpdate, meal.Slug); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Create(request).Error; err != nil {
			return err
		}
		return s.notifier.Notify(tx, NotifyEvent{
			SenderID:       actor.User.ID,
			ReceiverID:     target.UserID,
			Type:           models.NotifyMealUpdate,
			Identifier:     meal.Slug,
			RoomIdentifier: actor.Room.Slug,
			Message:        fmt.Sprintf("requested to update meal of %s to %s.", meal.Date().Format(), mealShouldBe.String()),
			Meta:           map[string]interface{}{"meal_should_be": mealShouldBe.String()},
		})
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	request.Meal = meal
	request.RequestTo = target
	return request, nil
}

// ConfirmChange applies a pending request. Only the addressed member may confirm.
func (s *mealService) ConfirmChange(actor *ActorContext, mealSlug string) (*models.Meal, error) {
	if _, err := s.guard(); err != nil {
		return nil, err
	}

	request, err := s.findRequest(mealSlug)
	if err != nil {
		return nil, err
	}
	if request.RequestToID != actor.Membership.ID {
		return nil, deny(s.suspicious, actor)
	}

	meal := request.Meal
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Meal{}).Where("id = ?", meal.ID).Updates(map[string]interface{}{
			"meal_today":      decimal.NewNullDecimal(request.MealShouldBe),
			"confirmed_by_id": actor.Membership.ID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Delete(request).Error; err != nil {
			return err
		}
		if err := s.notifier.Retract(tx, request.RequestedBy.UserID, models.NotifyMealUpdate, meal.Slug); err != nil {
			return err
		}
		return s.notifier.Notify(tx, NotifyEvent{
			SenderID:       actor.User.ID,
			ReceiverID:     request.RequestedBy.UserID,
			Type:           models.NotifyMealUpdateConfirmed,
			Identifier:     meal.Slug,
			RoomIdentifier: actor.Room.Slug,
			Message: fmt.Sprintf("confirmed your request to update meal of %s and changed it to %s.",
				meal.Date().Format(), request.MealShouldBe.String()),
		})
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.findMeal(mealSlug)
}

// DenyChange rejects a pending request. Only the addressed member may deny.
func (s *mealService) DenyChange(actor *ActorContext, mealSlug string) error {
	if _, err := s.guard(); err != nil {
		return err
	}

	request, err := s.findRequest(mealSlug)
	if err != nil {
		return err
	}
	if request.RequestToID != actor.Membership.ID {
		return deny(s.suspicious, actor)
	}

	return s.dropRequest(request, request.RequestedBy.UserID, actor,
		fmt.Sprintf("rejected your request to update meal of %s", request.Meal.Date().Format()))
}

// CancelChange withdraws a pending request. Only the requester may cancel.
func (s *mealService) CancelChange(actor *ActorContext, mealSlug string) error {
	if _, err := s.guard(); err != nil {
		return err
	}

	request, err := s.findRequest(mealSlug)
	if err != nil {
		return err
	}
	if request.RequestedByID != actor.Membership.ID || request.RequestedBy.RoomID != actor.Room.ID {
		return deny(s.suspicious, actor)
	}

	return s.dropRequest(request, request.RequestTo.UserID, actor,
		fmt.Sprintf("cancelled the request to update meal of %s", request.Meal.Date().Format()))
}

// dropRequest deletes request, retracts the requester's original notification
// and tells receiverUserID what happened.
func (s *mealService) dropRequest(request *models.MealUpdateRequest, receiverUserID string, actor *ActorContext, message string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(request).Error; err != nil {
			return err
		}
		if err := s.notifier.Retract(tx, request.RequestedBy.UserID, models.NotifyMealUpdate, request.Slug); err != nil {
			return err
		}
		return s.notifier.Notify(tx, NotifyEvent{
			SenderID:       actor.User.ID,
			ReceiverID:     receiverUserID,
			Type:           models.NotifyMealRequestCancel,
			Identifier:     request.Slug,
			RoomIdentifier: actor.Room.Slug,
			Message:        message,
		})
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetPendingRequests lists requests waiting for the actor's decision.
func (s *mealService) GetPendingRequests(actor *ActorContext) ([]models.MealUpdateRequest, error) {
	var requests []models.MealUpdateRequest
	if err := s.db.Preload("Meal").Preload("RequestedBy.User").
		Where("request_to_id = ?", actor.Membership.ID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return requests, nil
}

// GetMealChart returns every member's rows from day 1 through tomorrow (today on
// the last day of the month). Totals only count days up to today.
func (s *mealService) GetMealChart(actor *ActorContext) (*MealChart, error) {
	day := today(s.clock)
	through := day.Day + 1
	if day.IsLastDayOfMonth() {
		through = day.Day
	}

	members, err := loadRoomMembers(s.db, actor.Room.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}

	var meals []models.Meal
	if len(ids) > 0 {
		if err := s.db.Where("membership_id IN ? AND year = ? AND month = ? AND day <= ?", ids, day.Year, int(day.Month), through).
			Order("day ASC").
			Find(&meals).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	byMember := make(map[string][]models.Meal, len(members))
	for _, meal := range meals {
		byMember[meal.MembershipID] = append(byMember[meal.MembershipID], meal)
	}

	chart := &MealChart{Year: day.Year, Month: int(day.Month), ThroughDay: through, Members: make([]MemberMeals, 0, len(members))}
	for i := range members {
		m := &members[i]
		row := MemberMeals{MembershipSlug: m.Slug, Username: usernameOf(m), Meals: byMember[m.ID], Total: decimal.Zero}
		if row.Meals == nil {
			row.Meals = []models.Meal{}
		}
		for _, meal := range row.Meals {
			if meal.Day <= day.Day && meal.MealToday.Valid {
				row.Total = row.Total.Add(meal.MealToday.Decimal)
			}
		}
		chart.Members = append(chart.Members, row)
	}
	return chart, nil
}

// EnsurePlaceholders creates the missing empty rows for every member of the room
// in month's month. It returns the number of rows created.
func (s *mealService) EnsurePlaceholders(roomID string, month clock.Date) (int64, error) {
	var created int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		n, err := ensureMonthPlaceholders(tx, roomID, month)
		created = n
		return err
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return created, nil
}

// RolloverAll backfills the current month for every active room and, on the last
// day of a month, the next month too.
func (s *mealService) RolloverAll() (int64, error) {
	day := today(s.clock)

	var roomIDs []string
	if err := s.db.Model(&models.Room{}).Where("is_active = ?", true).Pluck("id", &roomIDs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var total int64
	for _, roomID := range roomIDs {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			n, err := ensureMonthPlaceholders(tx, roomID, day)
			if err != nil {
				return err
			}
			total += n
			if day.IsLastDayOfMonth() {
				n, err = ensureMonthPlaceholders(tx, roomID, day.NextMonth())
				if err != nil {
					return err
				}
				total += n
			}
			return nil
		})
		if err != nil {
			return total, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	logger.Get().Infow("meal rollover finished", "rooms", len(roomIDs), "rows_created", total)
	return total, nil
}

// guard rejects mutations during the 00:00 maintenance minute and returns today.
func (s *mealService) guard() (clock.Date, error) {
	now := s.clock.Now()
	if clock.InMaintenanceWindow(now) {
		return clock.Date{}, apperrors.ErrMaintenance
	}
	return clock.DateOf(now), nil
}

// writeTomorrow moves meal_next_day into tomorrow's meal_today and zeroes
// tomorrow's own meal_next_day.
func (s *mealService) writeTomorrow(tx *gorm.DB, membershipID, username string, day clock.Date, next decimal.Decimal, auto *decimal.Decimal) error {
	row := newMealRow(membershipID, username, day.AddDays(1))
	row.MealToday = decimal.NewNullDecimal(next)
	row.MealNextDay = decimal.NewNullDecimal(decimal.Zero)
	setAutoEntry(row, auto)
	row.ConfirmedByID = &membershipID

	return upsertMeals(tx, []*models.Meal{row},
		"meal_today", "meal_next_day", "auto_entry", "auto_entry_value", "confirmed_by_id")
}

func (s *mealService) entryResult(membershipID string, day clock.Date, warning string) (*MealEntryResult, error) {
	todayRow, err := loadMealOn(s.db, membershipID, day)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	tomorrowRow, err := loadMealOn(s.db, membershipID, day.AddDays(1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &MealEntryResult{Today: todayRow, Tomorrow: tomorrowRow, Warning: warning}, nil
}

func (s *mealService) findMeal(mealSlug string) (*models.Meal, error) {
	var meal models.Meal
	if err := s.db.Preload("Membership.User").Where("slug = ?", mealSlug).First(&meal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMealNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &meal, nil
}

func (s *mealService) findRequest(mealSlug string) (*models.MealUpdateRequest, error) {
	var request models.MealUpdateRequest
	if err := s.db.Preload("Meal").Preload("RequestedBy").Preload("RequestTo").
		Where("slug = ?", mealSlug).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMealRequestMissing
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &request, nil
}

// resolveAutoEntry returns the auto entry value to store, or nil with a warning
// when it was requested too close to month end.
func resolveAutoEntry(day clock.Date, value *decimal.Decimal) (*decimal.Decimal, string) {
	if value == nil {
		return nil, ""
	}
	if day.Day >= day.DaysInMonth()-1 {
		return nil, AutoEntryRejectedWarning
	}
	v := *value
	return &v, ""
}

// applyAutoEntry fills every day from day+2 through month end with value.
func applyAutoEntry(tx *gorm.DB, membershipID, username string, day clock.Date, value decimal.Decimal) error {
	last := day.DaysInMonth()
	if day.Day+2 > last {
		return nil
	}

	rows := make([]*models.Meal, 0, last-day.Day-1)
	for d := day.Day + 2; d <= last; d++ {
		row := newMealRow(membershipID, username, clock.Date{Year: day.Year, Month: day.Month, Day: d})
		row.MealToday = decimal.NewNullDecimal(value)
		row.MealNextDay = decimal.NewNullDecimal(value)
		setAutoEntry(row, &value)
		row.ConfirmedByID = &membershipID
		rows = append(rows, row)
	}
	return upsertMeals(tx, rows, "meal_today", "meal_next_day", "auto_entry", "auto_entry_value", "confirmed_by_id")
}

// clearAutoEntry empties the auto-filled rows from day+2 through month end.
func clearAutoEntry(tx *gorm.DB, membershipID string, day clock.Date) error {
	return tx.Model(&models.Meal{}).
		Where("membership_id = ? AND year = ? AND month = ? AND day >= ? AND auto_entry = ?",
			membershipID, day.Year, int(day.Month), day.Day+2, true).
		Updates(map[string]interface{}{
			"meal_today":       nil,
			"meal_next_day":    nil,
			"auto_entry":       false,
			"auto_entry_value": nil,
			"confirmed_by_id":  nil,
		}).Error
}

// backfill ensures placeholders for day's month and, on its last day, for the next month.
func backfill(tx *gorm.DB, roomID string, day clock.Date) error {
	if _, err := ensureMonthPlaceholders(tx, roomID, day); err != nil {
		return err
	}
	if day.IsLastDayOfMonth() {
		if _, err := ensureMonthPlaceholders(tx, roomID, day.NextMonth()); err != nil {
			return err
		}
	}
	return nil
}

// ensureMonthPlaceholders inserts an empty row for every (member, day) of month
// that has none. Running it twice creates nothing the second time.
func ensureMonthPlaceholders(tx *gorm.DB, roomID string, month clock.Date) (int64, error) {
	members, err := loadRoomMembers(tx, roomID)
	if err != nil || len(members) == 0 {
		return 0, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}

	type key struct {
		MembershipID string
		Day          int
	}
	var existing []key
	if err := tx.Model(&models.Meal{}).
		Select("membership_id, day").
		Where("membership_id IN ? AND year = ? AND month = ?", ids, month.Year, int(month.Month)).
		Scan(&existing).Error; err != nil {
		return 0, err
	}
	seen := make(map[key]struct{}, len(existing))
	for _, k := range existing {
		seen[k] = struct{}{}
	}

	days := month.DaysInMonth()
	missing := make([]*models.Meal, 0)
	for i := range members {
		m := &members[i]
		for d := 1; d <= days; d++ {
			if _, ok := seen[key{MembershipID: m.ID, Day: d}]; ok {
				continue
			}
			missing = append(missing, newMealRow(m.ID, usernameOf(m), clock.Date{Year: month.Year, Month: month.Month, Day: d}))
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	result := tx.Clauses(clause.OnConflict{Columns: mealKeyColumns, DoNothing: true}).
		CreateInBatches(missing, 100)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// upsertMeals inserts rows or, on a (member, day) clash, overwrites columns.
func upsertMeals(tx *gorm.DB, rows []*models.Meal, columns ...string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   mealKeyColumns,
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(rows).Error
}

func newMealRow(membershipID, username string, day clock.Date) *models.Meal {
	return &models.Meal{
		MembershipID: membershipID,
		Year:         day.Year,
		Month:        int(day.Month),
		Day:          day.Day,
		Slug:         slug.Join(username, fmt.Sprintf("%02d", day.Day), slug.Suffix()),
	}
}

func setAutoEntry(row *models.Meal, auto *decimal.Decimal) {
	row.AutoEntry = auto != nil
	row.AutoEntryValue = nullDecimal(auto)
}

func loadMealOn(db *gorm.DB, membershipID string, day clock.Date) (*models.Meal, error) {
	var meal models.Meal
	if err := db.Where("membership_id = ? AND year = ? AND month = ? AND day = ?",
		membershipID, day.Year, int(day.Month), day.Day).
		First(&meal).Error; err != nil {
		return nil, err
	}
	return &meal, nil
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}

// validateMealValues checks that every value is within 0..99.99 with at most two decimals.
func validateMealValues(values ...decimal.Decimal) error {
	for _, v := range values {
		if v.IsNegative() || v.GreaterThan(maxMealValue) || !v.Equal(v.Truncate(2)) {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Meal values must be between 0 and 99.99 with at most 2 decimal places")
		}
	}
	return nil
}

// dayAfter reports whether a falls after b.
func dayAfter(a, b clock.Date) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	if a.Month != b.Month {
		return a.Month > b.Month
	}
	return a.Day > b.Day
}

func containsMembership(members []models.Membership, id string) bool {
	for _, m := range members {
		if m.ID == id {
			return true
		}
	}
	return false
}
