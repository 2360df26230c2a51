package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homesteer/internal/clock"
	"homesteer/internal/logger"
	"homesteer/internal/models"
)

// suspiciousService counts rejected authorization attempts per user.
type suspiciousService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewSuspiciousService creates a new SuspiciousServicer.
func NewSuspiciousService(db *gorm.DB, clk clock.Clock) SuspiciousServicer {
	return &suspiciousService{db: db, clock: clk}
}

// RecordFailedAttempt bumps the user's attempt counter. Failures are only logged
// so the caller still returns its permission error.
func (s *suspiciousService) RecordFailedAttempt(userID string) {
	now := s.clock.Now()
	row := &models.SuspiciousActivity{UserID: userID, Attempt: 1, LastAttempt: now}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"attempt":      gorm.Expr("suspicious_activities.attempt + ?", 1),
			"last_attempt": now,
			"updated_at":   now,
		}),
	}).Create(row).Error
	if err != nil {
		logger.Get().Errorw("failed to record suspicious activity", "error", err, "user_id", userID)
		return
	}

	logger.Get().Warnw("rejected unauthorized ledger operation", "user_id", userID)
}
