package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homesteer/internal/clock"
	"homesteer/internal/models"
)

// totalsService computes running totals straight from the ledger rows.
type totalsService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewTotalsService creates a new TotalsServicer.
func NewTotalsService(db *gorm.DB, clk clock.Clock) TotalsServicer {
	return &totalsService{db: db, clock: clk}
}

// roomMembers is a subquery selecting the membership IDs of member's room.
func (s *totalsService) roomMembers(member *models.Membership) *gorm.DB {
	return s.db.Model(&models.Membership{}).Select("id").Where("room_id = ?", member.RoomID)
}

// mealsThisMonth scopes meals to days 1 through today of the current month.
func (s *totalsService) mealsThisMonth() *gorm.DB {
	day := today(s.clock)
	return s.db.Model(&models.Meal{}).Where("year = ? AND month = ? AND day <= ?", day.Year, int(day.Month), day.Day)
}

// MemberMeals returns the meals the member has eaten so far this month.
func (s *totalsService) MemberMeals(member *models.Membership) (decimal.Decimal, error) {
	return sumDecimal(s.mealsThisMonth().Where("membership_id = ?", member.ID), "meal_today")
}

// RoomMeals returns the meals the whole room has eaten so far this month.
func (s *totalsService) RoomMeals(member *models.Membership) (decimal.Decimal, error) {
	return sumDecimal(s.mealsThisMonth().Where("membership_id IN (?)", s.roomMembers(member)), "meal_today")
}

// MemberCostSector returns the member's allocation across every cost sector.
func (s *totalsService) MemberCostSector(member *models.Membership) (decimal.Decimal, error) {
	return sumDecimal(s.db.Model(&models.MemberTrack{}).Where("membership_id = ?", member.ID), "cost")
}

// RoomCostSector returns the room's allocation across every cost sector.
func (s *totalsService) RoomCostSector(member *models.Membership) (decimal.Decimal, error) {
	return sumDecimal(s.db.Model(&models.MemberTrack{}).Where("membership_id IN (?)", s.roomMembers(member)), "cost")
}

func (s *totalsService) shoppingThisMonth(member *models.Membership, shopType models.ShopType) *gorm.DB {
	day := today(s.clock)
	return s.db.Model(&models.Shopping{}).
		Where("room_id = ? AND shop_type = ? AND year = ? AND month = ?", member.RoomID, shopType, day.Year, int(day.Month))
}

// MemberIndividualShopping returns the member's own shopping this month.
func (s *totalsService) MemberIndividualShopping(member *models.Membership) (decimal.Decimal, error) {
	return sumDecimal(s.shoppingThisMonth(member, models.ShopTypeIndividual).Where("created_by_id = ?", member.ID), "cost")
}

// RoomIndividualShopping returns every member's own shopping this month.
func (s *totalsService) RoomIndividualShopping(member *models.Membership) (decimal.Decimal, error) {
	return sumDecimal(s.shoppingThisMonth(member, models.ShopTypeIndividual), "cost")
}

// RoomMonthlyShopping returns the room's monthly shopping this month.
func (s *totalsService) RoomMonthlyShopping(member *models.Membership) (decimal.Decimal, error) {
	return sumDecimal(s.shoppingThisMonth(member, models.ShopTypeMonthly), "cost")
}

// GrandTotalShopping is individual plus monthly shopping when the room is
// individual-dependent, and monthly shopping alone when it is manager-dependent.
func (s *totalsService) GrandTotalShopping(member *models.Membership) (decimal.Decimal, error) {
	setting, err := loadSetting(s.db, member.RoomID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.grandTotal(member, setting.ShoppingType)
}

func (s *totalsService) grandTotal(member *models.Membership, shoppingType models.ShoppingType) (decimal.Decimal, error) {
	monthly, err := s.RoomMonthlyShopping(member)
	if err != nil {
		return decimal.Zero, err
	}
	if shoppingType == models.ShoppingTypeManager {
		return monthly, nil
	}
	individual, err := s.RoomIndividualShopping(member)
	if err != nil {
		return decimal.Zero, err
	}
	return individual.Add(monthly), nil
}

func (s *totalsService) depositsThisMonth() *gorm.DB {
	day := today(s.clock)
	return s.db.Model(&models.CashDepositMember{}).Where("year = ? AND month = ?", day.Year, int(day.Month))
}

// MemberDeposits returns the member's cash deposits this month.
func (s *totalsService) MemberDeposits(member *models.Membership) (decimal.Decimal, error) {
	return sumDecimal(s.depositsThisMonth().Where("membership_id = ?", member.ID), "amount")
}

// RoomDeposits returns the room's cash deposits this month.
func (s *totalsService) RoomDeposits(member *models.Membership) (decimal.Decimal, error) {
	return sumDecimal(s.depositsThisMonth().Where("membership_id IN (?)", s.roomMembers(member)), "amount")
}

// Summary computes every total for the actor in one call.
func (s *totalsService) Summary(actor *ActorContext) (*LedgerTotals, error) {
	member := actor.Membership
	day := today(s.clock)

	setting, err := loadSetting(s.db, member.RoomID)
	if err != nil {
		return nil, err
	}

	totals := &LedgerTotals{Year: day.Year, Month: int(day.Month), ShoppingType: setting.ShoppingType}
	steps := []struct {
		dst *decimal.Decimal
		fn  func(*models.Membership) (decimal.Decimal, error)
	}{
		{&totals.MemberMeals, s.MemberMeals},
		{&totals.RoomMeals, s.RoomMeals},
		{&totals.MemberCostSector, s.MemberCostSector},
		{&totals.RoomCostSector, s.RoomCostSector},
		{&totals.MemberIndividualShopping, s.MemberIndividualShopping},
		{&totals.RoomIndividualShopping, s.RoomIndividualShopping},
		{&totals.RoomMonthlyShopping, s.RoomMonthlyShopping},
		{&totals.MemberDeposits, s.MemberDeposits},
		{&totals.RoomDeposits, s.RoomDeposits},
	}
	for _, step := range steps {
		v, err := step.fn(member)
		if err != nil {
			return nil, err
		}
		*step.dst = v
	}

	if setting.ShoppingType == models.ShoppingTypeManager {
		totals.GrandTotalShopping = totals.RoomMonthlyShopping
	} else {
		totals.GrandTotalShopping = totals.RoomIndividualShopping.Add(totals.RoomMonthlyShopping)
	}
	return totals, nil
}
