package services

import (
	"testing"
	"time"

	"homesteer/internal/clock"
	"homesteer/internal/models"
	"homesteer/internal/testutil"
)

func TestRecordFailedAttempt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	clk := clock.NewFixed(april10)
	svc := NewSuspiciousService(db, clk)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	svc.RecordFailedAttempt(user.ID)
	clk.Set(april10.Add(time.Hour))
	svc.RecordFailedAttempt(user.ID)
	svc.RecordFailedAttempt(other.ID)

	if got := attempts(t, db, user.ID); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
	if got := attempts(t, db, other.ID); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}

	var row models.SuspiciousActivity
	testutil.AssertNoError(t, db.Where("user_id = ?", user.ID).First(&row).Error)
	if !row.LastAttempt.Equal(april10.Add(time.Hour)) {
		t.Errorf("expected last attempt to move forward, got %v", row.LastAttempt)
	}
}
