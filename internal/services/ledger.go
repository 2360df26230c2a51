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
	"homesteer/internal/validator"
)

// Ledger-wide input limits.
const (
	maxFieldTitleLen       = 20
	maxFieldDescriptionLen = 30
	maxItemLen             = 15
	maxQuantityUnitLen     = 10
)

var maxLedgerAmount = decimal.RequireFromString("9999999.99")

// sumDecimal runs COALESCE(SUM(column), 0) over query. The result is never null
// and is rounded to cents, since some drivers sum DECIMAL columns as floats.
func sumDecimal(query *gorm.DB, column string) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := query.Select("COALESCE(SUM(" + column + "), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total.Round(2), nil
}

// titleKey is the case-insensitive uniqueness key for titles and item names.
func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// deny records a failed authorization attempt for the actor and returns ErrNotAllowed.
// Call it outside any open transaction so the record survives the rollback.
func deny(tracker SuspiciousServicer, actor *ActorContext) error {
	tracker.RecordFailedAttempt(actor.User.ID)
	return apperrors.ErrNotAllowed
}

// today returns the current calendar day of c.
func today(c clock.Clock) clock.Date {
	return clock.DateOf(c.Now())
}

// loadRoomMembers returns the room's memberships with users, oldest first.
func loadRoomMembers(db *gorm.DB, roomID string) ([]models.Membership, error) {
	var members []models.Membership
	if err := db.Preload("User").
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return members, nil
}

// usernameOf returns the member's username, or the membership slug when the
// user was not preloaded.
func usernameOf(m *models.Membership) string {
	if m.User != nil {
		return m.User.Username
	}
	return m.Slug
}

// checkFieldTitle validates a cost sector or deposit field title.
func checkFieldTitle(title string) error {
	if title == "" || len(title) > maxFieldTitleLen {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("Title must be 1-%d characters long", maxFieldTitleLen))
	}
	if !validator.IsFieldTitle(title) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"Title can only contain letters, numbers and hyphens")
	}
	return nil
}

// checkFieldInput validates a ledger field's title and description.
func checkFieldInput(title, description string) error {
	if err := checkFieldTitle(title); err != nil {
		return err
	}
	if len(description) > maxFieldDescriptionLen {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("Description must be at most %d characters long", maxFieldDescriptionLen))
	}
	return nil
}

// duplicateFieldTitle is the error for a title that already exists in the room.
func duplicateFieldTitle(title string) error {
	return apperrors.WithMessage(apperrors.ErrDuplicateTitle,
		fmt.Sprintf("%q Field is already exists ! Please try another one.", title))
}

// checkAmounts validates a field-slug to amount mapping.
func checkAmounts(amounts map[string]decimal.Decimal) error {
	if len(amounts) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "At least one amount is required")
	}
	for fieldSlug, amount := range amounts {
		if err := checkAmount(amount); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput,
				fmt.Sprintf("Invalid amount for %q: %s", fieldSlug, err.Error()))
		}
	}
	return nil
}

func checkAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.New("must not be negative")
	}
	if amount.GreaterThan(maxLedgerAmount) {
		return errors.New("is too large")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return errors.New("allows at most 2 decimal places")
	}
	return nil
}

// findMembershipForMaintainer resolves a membership slug for a maintainer action.
// A member of another room counts as a denied attempt.
func findMembershipForMaintainer(db *gorm.DB, tracker SuspiciousServicer, actor *ActorContext, memberSlug string) (*models.Membership, error) {
	var member models.Membership
	if err := db.Preload("User").Where("slug = ?", memberSlug).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if member.RoomID != actor.Room.ID {
		return nil, deny(tracker, actor)
	}
	return &member, nil
}
