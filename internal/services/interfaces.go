package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homesteer/internal/clock"
	"homesteer/internal/models"
	"homesteer/internal/pagination"
)

// ActorContext identifies who is performing a ledger operation.
// Every ledger call receives it explicitly; nothing reads a request-global user.
type ActorContext struct {
	User       *models.User
	Membership *models.Membership
	Room       *models.Room
}

// Role returns the actor's role inside their room.
func (a *ActorContext) Role() models.Role {
	return a.Membership.Role
}

// IsRoomCreator reports whether the actor created their room.
func (a *ActorContext) IsRoomCreator() bool {
	return a.Room != nil && a.Room.CreatorID == a.User.ID
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, email, password, firstName, lastName string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
}

// MembershipServicer is the membership directory: it resolves users to their room
// and role, and owns the minimal room lifecycle the ledgers depend on.
type MembershipServicer interface {
	ResolveActor(userID string) (*ActorContext, error)
	CreateRoom(userID, title, description string, privacy models.RoomPrivacy) (*models.Room, error)
	JoinRoom(userID, roomSlug string) (*models.Membership, error)
	GetRoomMembers(actor *ActorContext) ([]models.Membership, error)
	GetMemberBySlug(actor *ActorContext, memberSlug string) (*models.Membership, error)
	UpdateRole(actor *ActorContext, memberSlug string, role models.Role) (*models.Membership, error)
	GetSetting(roomID string) (*models.ManagerialSetting, error)
	SetShoppingType(actor *ActorContext, shoppingType models.ShoppingType) (*models.ManagerialSetting, error)
}

// NotifyEvent describes a notification to emit for a ledger transition.
type NotifyEvent struct {
	SenderID       string
	ReceiverID     string
	Type           models.NotifyType
	Identifier     string
	RoomIdentifier string
	Message        string
	Meta           map[string]interface{}
}

// NotificationServicer is the notification sink used by the ledgers.
// Notify and Retract take the caller's transaction so they commit or roll back with it.
type NotificationServicer interface {
	Notify(tx *gorm.DB, event NotifyEvent) error
	Retract(tx *gorm.DB, senderID string, notifyType models.NotifyType, identifier string) error
	GetUserNotifications(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
}

// SuspiciousServicer records failed authorization attempts.
type SuspiciousServicer interface {
	RecordFailedAttempt(userID string)
}

// AuditServicer defines the contract for audit log recording.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceSlug, ipAddress string, changes map[string]interface{})
}

// MealEntryInput is the payload for creating today's meal entry.
type MealEntryInput struct {
	MealToday      decimal.Decimal
	MealNextDay    decimal.Decimal
	AutoEntryValue *decimal.Decimal
}

// MealUpdateInput is the payload for updating today's meal entry.
type MealUpdateInput struct {
	MealNextDay    decimal.Decimal
	AutoEntryValue *decimal.Decimal
}

// MealEntryResult reports the rows written by a create or update. Warning is set
// when auto entry was requested but rejected.
type MealEntryResult struct {
	Today    *models.Meal `json:"today"`
	Tomorrow *models.Meal `json:"tomorrow"`
	Warning  string       `json:"warning,omitempty"`
}

// MemberMeals is one member's row in the meal chart.
type MemberMeals struct {
	MembershipSlug string          `json:"membership_slug"`
	Username       string          `json:"username"`
	Meals          []models.Meal   `json:"meals"`
	Total          decimal.Decimal `json:"total"`
}

// MealChart is the room's meal grid from day 1 through ThroughDay.
type MealChart struct {
	Year       int           `json:"year"`
	Month      int           `json:"month"`
	ThroughDay int           `json:"through_day"`
	Members    []MemberMeals `json:"members"`
}

// MealServicer is the meal ledger.
type MealServicer interface {
	CreateTodayEntry(actor *ActorContext, input MealEntryInput) (*MealEntryResult, error)
	UpdateTodayEntry(actor *ActorContext, input MealUpdateInput) (*MealEntryResult, error)
	GetTodayEntry(actor *ActorContext) (*models.Meal, error)
	AdminOverrideEntry(actor *ActorContext, mealSlug string, mealToday decimal.Decimal) (*models.Meal, error)
	RequestCandidates(actor *ActorContext) ([]models.Membership, error)
	RequestChange(actor *ActorContext, mealSlug string, mealShouldBe decimal.Decimal, requestToSlug string) (*models.MealUpdateRequest, error)
	ConfirmChange(actor *ActorContext, mealSlug string) (*models.Meal, error)
	DenyChange(actor *ActorContext, mealSlug string) error
	CancelChange(actor *ActorContext, mealSlug string) error
	GetPendingRequests(actor *ActorContext) ([]models.MealUpdateRequest, error)
	GetMealChart(actor *ActorContext) (*MealChart, error)
	EnsurePlaceholders(roomID string, month clock.Date) (int64, error)
	RolloverAll() (int64, error)
}

// FieldInput is the payload for creating or updating a ledger field.
type FieldInput struct {
	Title       string
	Description string
}

// ChartRow is one member's amounts keyed by field slug.
type ChartRow struct {
	MembershipSlug string                     `json:"membership_slug"`
	Username       string                     `json:"username"`
	Amounts        map[string]decimal.Decimal `json:"amounts"`
	Total          decimal.Decimal            `json:"total"`
}

// CostChart is the room's cost-sector allocation matrix.
type CostChart struct {
	Fields    []models.TrackerField `json:"fields"`
	Rows      []ChartRow            `json:"rows"`
	RoomTotal decimal.Decimal       `json:"room_total"`
}

// CostSectorServicer is the cost-sector ledger.
type CostSectorServicer interface {
	CreateField(actor *ActorContext, input FieldInput) (*models.TrackerField, error)
	UpdateField(actor *ActorContext, fieldSlug string, input FieldInput) (*models.TrackerField, error)
	DeleteField(actor *ActorContext, fieldSlug string) error
	GetFields(actor *ActorContext) ([]models.TrackerField, error)
	AssignCosts(actor *ActorContext, targetSlug string, amounts map[string]decimal.Decimal) ([]models.MemberTrack, error)
	GetCostChart(actor *ActorContext) (*CostChart, error)
}

// ShoppingInput is the payload for creating or updating a shopping item.
type ShoppingInput struct {
	Item         string
	Quantity     *decimal.Decimal
	QuantityUnit *string
	Cost         decimal.Decimal
	Date         time.Time
}

// ShoppingServicer is the shopping ledger with its individual and monthly lanes.
type ShoppingServicer interface {
	CreateShopping(actor *ActorContext, shopType models.ShopType, input ShoppingInput) (*models.Shopping, error)
	UpdateShopping(actor *ActorContext, shopType models.ShopType, shoppingSlug string, input ShoppingInput) (*models.Shopping, error)
	DeleteShopping(actor *ActorContext, shopType models.ShopType, shoppingSlug string) error
	GetShoppingChart(actor *ActorContext, page pagination.PageRequest) (*pagination.PageResponse[models.Shopping], error)
}

// DepositChart is the room's deposits for the current month.
type DepositChart struct {
	Year      int                       `json:"year"`
	Month     int                       `json:"month"`
	Fields    []models.CashDepositField `json:"fields"`
	Rows      []ChartRow                `json:"rows"`
	RoomTotal decimal.Decimal           `json:"room_total"`
}

// DepositServicer is the cash deposit ledger.
type DepositServicer interface {
	CreateField(actor *ActorContext, input FieldInput) (*models.CashDepositField, error)
	UpdateField(actor *ActorContext, fieldSlug string, input FieldInput) (*models.CashDepositField, error)
	DeleteField(actor *ActorContext, fieldSlug string) error
	GetFields(actor *ActorContext) ([]models.CashDepositField, error)
	AssignDeposits(actor *ActorContext, targetSlug string, amounts map[string]decimal.Decimal) ([]models.CashDepositMember, error)
	GetDepositChart(actor *ActorContext) (*DepositChart, error)
}

// LedgerTotals is every running total for one member and their room this month.
type LedgerTotals struct {
	Year                     int                 `json:"year"`
	Month                    int                 `json:"month"`
	ShoppingType             models.ShoppingType `json:"shopping_type"`
	MemberMeals              decimal.Decimal     `json:"member_meals"`
	RoomMeals                decimal.Decimal     `json:"room_meals"`
	MemberCostSector         decimal.Decimal     `json:"member_cost_sector"`
	RoomCostSector           decimal.Decimal     `json:"room_cost_sector"`
	MemberIndividualShopping decimal.Decimal     `json:"member_individual_shopping"`
	RoomIndividualShopping   decimal.Decimal     `json:"room_individual_shopping"`
	RoomMonthlyShopping      decimal.Decimal     `json:"room_monthly_shopping"`
	GrandTotalShopping       decimal.Decimal     `json:"grand_total_shopping"`
	MemberDeposits           decimal.Decimal     `json:"member_deposits"`
	RoomDeposits             decimal.Decimal     `json:"room_deposits"`
}

// TotalsServicer is the aggregation engine. Every method recomputes from ledger rows.
type TotalsServicer interface {
	MemberMeals(member *models.Membership) (decimal.Decimal, error)
	RoomMeals(member *models.Membership) (decimal.Decimal, error)
	MemberCostSector(member *models.Membership) (decimal.Decimal, error)
	RoomCostSector(member *models.Membership) (decimal.Decimal, error)
	MemberIndividualShopping(member *models.Membership) (decimal.Decimal, error)
	RoomIndividualShopping(member *models.Membership) (decimal.Decimal, error)
	RoomMonthlyShopping(member *models.Membership) (decimal.Decimal, error)
	GrandTotalShopping(member *models.Membership) (decimal.Decimal, error)
	MemberDeposits(member *models.Membership) (decimal.Decimal, error)
	RoomDeposits(member *models.Membership) (decimal.Decimal, error)
	Summary(actor *ActorContext) (*LedgerTotals, error)
}
