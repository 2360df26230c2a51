package services

import (
	"testing"

	"homesteer/internal/models"
	"homesteer/internal/pagination"
	"homesteer/internal/testutil"
)

func TestNotify(t *testing.T) {
	t.Run("creates a feed entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		sender := testutil.CreateTestUser(t, db)
		receiver := testutil.CreateTestUser(t, db)

		err := svc.Notify(nil, NotifyEvent{
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Type:       models.NotifyMealUpdate,
			Identifier: "meal-01",
			Message:    "requested to update meal",
			Meta:       map[string]interface{}{"meal_should_be": "2"},
		})
		testutil.AssertNoError(t, err)

		page, err := svc.GetUserNotifications(receiver.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Fatalf("expected 1 notification, got %d", page.TotalItems)
		}
		n := page.Data[0]
		if n.Counter != 1 || n.IsSeen || n.Category != models.NotificationCategoryMessage {
			t.Errorf("unexpected notification state: %+v", n)
		}
		if n.Sender == nil || n.Sender.ID != sender.ID {
			t.Error("expected the sender to be preloaded")
		}
	})

	t.Run("repeats collapse into one entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		sender := testutil.CreateTestUser(t, db)
		first := testutil.CreateTestUser(t, db)
		second := testutil.CreateTestUser(t, db)

		event := NotifyEvent{SenderID: sender.ID, ReceiverID: first.ID, Type: models.NotifyMealUpdate, Identifier: "meal-01", Message: "one"}
		testutil.AssertNoError(t, svc.Notify(nil, event))
		db.Model(&models.Notification{}).Where("identifier = ?", "meal-01").Update("is_seen", true)

		event.ReceiverID = second.ID
		event.Message = "two"
		testutil.AssertNoError(t, svc.Notify(nil, event))

		var rows []models.Notification
		testutil.AssertNoError(t, db.Find(&rows).Error)
		if len(rows) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(rows))
		}
		if rows[0].Counter != 2 || rows[0].IsSeen || rows[0].ReceiverID != second.ID || rows[0].Message != "two" {
			t.Errorf("expected the entry to be re-targeted and bumped, got %+v", rows[0])
		}
	})

	t.Run("different types stay separate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db)
		sender := testutil.CreateTestUser(t, db)
		receiver := testutil.CreateTestUser(t, db)

		testutil.AssertNoError(t, svc.Notify(nil, NotifyEvent{SenderID: sender.ID, ReceiverID: receiver.ID, Type: models.NotifyMealUpdate, Identifier: "meal-01"}))
		testutil.AssertNoError(t, svc.Notify(nil, NotifyEvent{SenderID: sender.ID, ReceiverID: receiver.ID, Type: models.NotifyMealRequestCancel, Identifier: "meal-01"}))

		if n := countRows(t, db, &models.Notification{}, "receiver_id = ?", receiver.ID); n != 2 {
			t.Errorf("expected 2 notifications, got %d", n)
		}
	})
}

func TestRetract(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNotificationService(db)
	sender := testutil.CreateTestUser(t, db)
	receiver := testutil.CreateTestUser(t, db)

	testutil.AssertNoError(t, svc.Notify(nil, NotifyEvent{SenderID: sender.ID, ReceiverID: receiver.ID, Type: models.NotifyMealUpdate, Identifier: "meal-01"}))
	testutil.AssertNoError(t, svc.Notify(nil, NotifyEvent{SenderID: sender.ID, ReceiverID: receiver.ID, Type: models.NotifyMealUpdate, Identifier: "meal-02"}))

	testutil.AssertNoError(t, svc.Retract(nil, sender.ID, models.NotifyMealUpdate, "meal-01"))

	if n := countRows(t, db, &models.Notification{}, "identifier = ?", "meal-01"); n != 0 {
		t.Errorf("expected the notification to be retracted, got %d", n)
	}
	if n := countRows(t, db, &models.Notification{}, "identifier = ?", "meal-02"); n != 1 {
		t.Errorf("expected the other notification to remain, got %d", n)
	}
}
