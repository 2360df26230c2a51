package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"homesteer/internal/clock"
	"homesteer/internal/models"
	"homesteer/internal/testutil"
)

// april10 is a mid-month instant in a 30-day month.
var april10 = time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)

func actorFor(m *models.Membership) *ActorContext {
	return &ActorContext{User: m.User, Membership: m, Room: m.Room}
}

// setupRoom creates a room whose creator is a manager plus one plain member.
func setupRoom(t *testing.T, db *gorm.DB) (manager, member *models.Membership) {
	t.Helper()
	manager = testutil.CreateTestRoom(t, db, testutil.CreateTestUser(t, db))
	member = testutil.CreateTestMember(t, db, manager.Room, models.RoleMember)
	return manager, member
}

func attempts(t *testing.T, db *gorm.DB, userID string) int {
	t.Helper()
	var row models.SuspiciousActivity
	if err := db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		return 0
	}
	return row.Attempt
}

func mealOn(t *testing.T, db *gorm.DB, membershipID string, day clock.Date) *models.Meal {
	t.Helper()
	meal, err := loadMealOn(db, membershipID, day)
	if err != nil {
		t.Fatalf("expected meal row for %v: %v", day, err)
	}
	return meal
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}
