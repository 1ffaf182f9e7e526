package postgres

import (
	"context"

	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

type ProctoringPostgreSQL struct {
	db *gorm.DB
}

func NewProctoringPostgreSQL(db *gorm.DB) repositories.ProctoringRepository {
	return &ProctoringPostgreSQL{db: db}
}

func (r *ProctoringPostgreSQL) Append(ctx context.Context, event *models.ProctoringEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *ProctoringPostgreSQL) ListByAttempt(ctx context.Context, attemptID uint) ([]*models.ProctoringEvent, error) {
	var events []*models.ProctoringEvent
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("id").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *ProctoringPostgreSQL) CountWarnings(ctx context.Context, attemptID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProctoringEvent{}).
		Where("attempt_id = ? AND suspicious IS NOT NULL", attemptID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
