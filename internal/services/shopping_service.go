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
	"homesteer/internal/pagination"
	"homesteer/internal/slug"
	"homesteer/internal/validator"
)

var maxShoppingAmount = decimal.RequireFromString("999999.99")

// shoppingService manages the individual and monthly shopping lists.
type shoppingService struct {
	db         *gorm.DB
	clock      clock.Clock
	suspicious SuspiciousServicer
}

// NewShoppingService creates a new ShoppingServicer.
func NewShoppingService(db *gorm.DB, clk clock.Clock, suspicious SuspiciousServicer) ShoppingServicer {
	return &shoppingService{db: db, clock: clk, suspicious: suspicious}
}

// shoppingEntry is a validated ShoppingInput.
type shoppingEntry struct {
	item     string
	quantity decimal.NullDecimal
	unit     *string
	cost     decimal.Decimal
	date     clock.Date
}

// CreateShopping adds an item to the actor's individual list or, for managers,
// to the room's monthly list.
func (s *shoppingService) CreateShopping(actor *ActorContext, shopType models.ShopType, input ShoppingInput) (*models.Shopping, error) {
	if shopType == models.ShopTypeMonthly && actor.Role() != models.RoleManager {
		return nil, deny(s.suspicious, actor)
	}
	entry, err := s.checkInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueItem(actor, shopType, entry, ""); err != nil {
		return nil, err
	}

	shopping := &models.Shopping{
		RoomID:       actor.Room.ID,
		CreatedByID:  actor.Membership.ID,
		Item:         entry.item,
		ItemKey:      titleKey(entry.item),
		Slug:         slug.New(entry.item),
		Quantity:     entry.quantity,
		QuantityUnit: entry.unit,
		Cost:         entry.cost,
		ShopType:     shopType,
		Date:         entry.date.Time(s.clock.Now().Location()),
		Year:         entry.date.Year,
		Month:        int(entry.date.Month),
	}
	if err := s.db.Create(shopping).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	shopping.CreatedBy = actor.Membership
	return shopping, nil
}

// UpdateShopping edits an item. Individual items belong to their creator, monthly
// items to the room's managers.
func (s *shoppingService) UpdateShopping(actor *ActorContext, shopType models.ShopType, shoppingSlug string, input ShoppingInput) (*models.Shopping, error) {
	shopping, err := s.findShopping(actor.Room.ID, shopType, shoppingSlug)
	if err != nil {
		return nil, err
	}
	if !canModifyShopping(actor, shopping) {
		return nil, deny(s.suspicious, actor)
	}
	entry, err := s.checkInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueItem(actor, shopType, entry, shopping.ID); err != nil {
		return nil, err
	}

	date := entry.date.Time(s.clock.Now().Location())
	updates := map[string]interface{}{
		"item":          entry.item,
		"item_key":      titleKey(entry.item),
		"quantity":      entry.quantity,
		"quantity_unit": entry.unit,
		"cost":          entry.cost,
		"date":          date,
		"year":          entry.date.Year,
		"month":         int(entry.date.Month),
	}
	if err := s.db.Model(&models.Shopping{}).Where("id = ?", shopping.ID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	shopping.Item = entry.item
	shopping.ItemKey = titleKey(entry.item)
	shopping.Quantity = entry.quantity
	shopping.QuantityUnit = entry.unit
	shopping.Cost = entry.cost
	shopping.Date = date
	shopping.Year = entry.date.Year
	shopping.Month = int(entry.date.Month)
	return shopping, nil
}

// DeleteShopping removes an item under the same rules as UpdateShopping.
func (s *shoppingService) DeleteShopping(actor *ActorContext, shopType models.ShopType, shoppingSlug string) error {
	shopping, err := s.findShopping(actor.Room.ID, shopType, shoppingSlug)
	if err != nil {
		return err
	}
	if !canModifyShopping(actor, shopping) {
		return deny(s.suspicious, actor)
	}

	if err := s.db.Delete(shopping).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetShoppingChart pages through this month's items of the room's authoritative
// lane. Supervisors and managers only.
func (s *shoppingService) GetShoppingChart(actor *ActorContext, page pagination.PageRequest) (*pagination.PageResponse[models.Shopping], error) {
	if !actor.Role().IsMaintainer() {
		return nil, deny(s.suspicious, actor)
	}

	setting, err := loadSetting(s.db, actor.Room.ID)
	if err != nil {
		return nil, err
	}
	shopType := models.ShopTypeIndividual
	if setting.ShoppingType == models.ShoppingTypeManager {
		shopType = models.ShopTypeMonthly
	}

	day := today(s.clock)
	query := s.db.Model(&models.Shopping{}).
		Where("room_id = ? AND shop_type = ? AND year = ? AND month = ?", actor.Room.ID, shopType, day.Year, int(day.Month)).
		Order("date DESC").
		Order("created_at DESC")

	resp, err := pagination.Fetch[models.Shopping](query, page, "CreatedBy.User")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return resp, nil
}

func canModifyShopping(actor *ActorContext, shopping *models.Shopping) bool {
	if shopping.ShopType == models.ShopTypeMonthly {
		return actor.Role() == models.RoleManager
	}
	return shopping.CreatedByID == actor.Membership.ID
}

// checkInput validates input against the current month and normalizes it.
func (s *shoppingService) checkInput(input ShoppingInput) (*shoppingEntry, error) {
	item := strings.TrimSpace(input.Item)
	if item == "" || len(item) > maxItemLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("Item must be 1-%d characters long", maxItemLen))
	}
	if !validator.IsItemName(item) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			`Please remove any special characters or spaces. Only Alpha Numeric values and "-", "_" are allowed!`)
	}

	entry := &shoppingEntry{item: item, cost: input.Cost}

	if input.QuantityUnit != nil {
		unit := strings.TrimSpace(*input.QuantityUnit)
		if unit != "" {
			if input.Quantity == nil {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
					"Please insert 'Quantity' first and then 'Quantity Unit' !")
			}
			if len(unit) > maxQuantityUnitLen {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
					fmt.Sprintf("Quantity unit must be at most %d characters long", maxQuantityUnitLen))
			}
			if !validator.IsQuantityUnit(unit) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
					"Please remove any special characters or spaces. Only Alpha values are allowed!")
			}
			unit = strings.ToLower(unit)
			entry.unit = &unit
		}
	}
	if input.Quantity != nil {
		if err := checkAmount(*input.Quantity); err != nil || input.Quantity.GreaterThan(maxShoppingAmount) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be a non-negative number with at most 2 decimal places")
		}
		entry.quantity = decimal.NewNullDecimal(*input.Quantity)
	}

	if err := checkAmount(input.Cost); err != nil || input.Cost.GreaterThan(maxShoppingAmount) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Cost must be a non-negative number with at most 2 decimal places")
	}

	now := s.clock.Now()
	if input.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Shopping date is required")
	}
	date := clock.DateOf(input.Date.In(now.Location()))
	current := clock.DateOf(now)
	if date.Year != current.Year || date.Month != current.Month {
		return nil, apperrors.ErrDateOutOfMonth
	}
	entry.date = date

	return entry, nil
}

// ensureUniqueItem checks the item name within its lane's natural scope for the
// entry's month: the creator's own list for individual items, the room for monthly ones.
func (s *shoppingService) ensureUniqueItem(actor *ActorContext, shopType models.ShopType, entry *shoppingEntry, exceptID string) error {
	query := s.db.Model(&models.Shopping{}).
		Where("room_id = ? AND shop_type = ? AND item_key = ? AND year = ? AND month = ?",
			actor.Room.ID, shopType, titleKey(entry.item), entry.date.Year, int(entry.date.Month))
	if shopType == models.ShopTypeIndividual {
		query = query.Where("created_by_id = ?", actor.Membership.ID)
	}
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrDuplicateTitle,
			fmt.Sprintf("%q is already in your shopping list! Please insert another one.", entry.item))
	}
	return nil
}

func (s *shoppingService) findShopping(roomID string, shopType models.ShopType, shoppingSlug string) (*models.Shopping, error) {
	var shopping models.Shopping
	if err := s.db.Where("slug = ? AND room_id = ? AND shop_type = ?", shoppingSlug, roomID, shopType).
		First(&shopping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShoppingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &shopping, nil
}
