package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"homesteer/internal/clock"
	"homesteer/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates a user with the given username and the
// password "password123".
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@test.com", username),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestRoom creates a room owned by creator, its setting and the creator's
// manager membership. The membership is returned with User and Room loaded.
func CreateTestRoom(t *testing.T, db *gorm.DB, creator *models.User) *models.Membership {
	t.Helper()

	n := nextID()
	room := &models.Room{
		Title:     fmt.Sprintf("Room %d", n),
		TitleKey:  fmt.Sprintf("room %d", n),
		Slug:      fmt.Sprintf("room-%d", n),
		IsActive:  true,
		CreatorID: creator.ID,
	}
	if err := db.Create(room).Error; err != nil {
		t.Fatalf("failed to create test room: %v", err)
	}

	setting := &models.ManagerialSetting{RoomID: room.ID, ShoppingType: models.ShoppingTypeIndividual, IsCUDAble: true}
	if err := db.Create(setting).Error; err != nil {
		t.Fatalf("failed to create test setting: %v", err)
	}
	room.Setting = setting

	return createMembership(t, db, creator, room, models.RoleManager)
}

// CreateTestMember creates a new user and adds them to room with role.
func CreateTestMember(t *testing.T, db *gorm.DB, room *models.Room, role models.Role) *models.Membership {
	t.Helper()
	return createMembership(t, db, CreateTestUser(t, db), room, role)
}

func createMembership(t *testing.T, db *gorm.DB, user *models.User, room *models.Room, role models.Role) *models.Membership {
	t.Helper()

	membership := &models.Membership{
		UserID: user.ID,
		RoomID: room.ID,
		Role:   role,
		Slug:   fmt.Sprintf("%s-%d", user.Username, nextID()),
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to create test membership: %v", err)
	}
	membership.User = user
	membership.Room = room
	return membership
}

// CreateTestTrackerField creates a cost sector in the room.
func CreateTestTrackerField(t *testing.T, db *gorm.DB, roomID, title string) *models.TrackerField {
	t.Helper()

	field := &models.TrackerField{
		RoomID:   roomID,
		Title:    title,
		TitleKey: strings.ToLower(title),
		Slug:     fmt.Sprintf("%s-%d", strings.ToLower(title), nextID()),
	}
	if err := db.Create(field).Error; err != nil {
		t.Fatalf("failed to create test tracker field: %v", err)
	}
	return field
}

// CreateTestMemberTrack allocates cost to a member for field.
func CreateTestMemberTrack(t *testing.T, db *gorm.DB, membershipID, fieldID, cost string) *models.MemberTrack {
	t.Helper()

	track := &models.MemberTrack{MembershipID: membershipID, TrackerFieldID: fieldID, Cost: decimal.RequireFromString(cost)}
	if err := db.Create(track).Error; err != nil {
		t.Fatalf("failed to create test member track: %v", err)
	}
	return track
}

// CreateTestDepositField creates a cash deposit field in the room.
func CreateTestDepositField(t *testing.T, db *gorm.DB, roomID, title string) *models.CashDepositField {
	t.Helper()

	field := &models.CashDepositField{
		RoomID:   roomID,
		Title:    title,
		TitleKey: strings.ToLower(title),
		Slug:     fmt.Sprintf("%s-%d", strings.ToLower(title), nextID()),
	}
	if err := db.Create(field).Error; err != nil {
		t.Fatalf("failed to create test deposit field: %v", err)
	}
	return field
}

// CreateTestDeposit records amount for a member against field in the given month.
func CreateTestDeposit(t *testing.T, db *gorm.DB, membershipID, fieldID string, year int, month time.Month, amount string) *models.CashDepositMember {
	t.Helper()

	deposit := &models.CashDepositMember{
		MembershipID:   membershipID,
		DepositFieldID: fieldID,
		Year:           year,
		Month:          int(month),
		Amount:         decimal.RequireFromString(amount),
	}
	if err := db.Create(deposit).Error; err != nil {
		t.Fatalf("failed to create test deposit: %v", err)
	}
	return deposit
}

// CreateTestShopping creates a shopping item bought by member on day.
func CreateTestShopping(t *testing.T, db *gorm.DB, member *models.Membership, shopType models.ShopType, item, cost string, day clock.Date) *models.Shopping {
	t.Helper()

	shopping := &models.Shopping{
		RoomID:      member.RoomID,
		CreatedByID: member.ID,
		Item:        item,
		ItemKey:     strings.ToLower(item),
		Slug:        fmt.Sprintf("%s-%d", strings.ToLower(item), nextID()),
		Cost:        decimal.RequireFromString(cost),
		ShopType:    shopType,
		Date:        day.Time(time.UTC),
		Year:        day.Year,
		Month:       int(day.Month),
	}
	if err := db.Create(shopping).Error; err != nil {
		t.Fatalf("failed to create test shopping: %v", err)
	}
	return shopping
}

// CreateTestMeal creates a filled meal row for member on day.
func CreateTestMeal(t *testing.T, db *gorm.DB, membershipID string, day clock.Date, mealToday string) *models.Meal {
	t.Helper()

	meal := &models.Meal{
		MembershipID:  membershipID,
		Year:          day.Year,
		Month:         int(day.Month),
		Day:           day.Day,
		Slug:          fmt.Sprintf("meal-%02d-%d", day.Day, nextID()),
		MealToday:     decimal.NewNullDecimal(decimal.RequireFromString(mealToday)),
		MealNextDay:   decimal.NewNullDecimal(decimal.Zero),
		ConfirmedByID: &membershipID,
	}
	if err := db.Create(meal).Error; err != nil {
		t.Fatalf("failed to create test meal: %v", err)
	}
	return meal
}
