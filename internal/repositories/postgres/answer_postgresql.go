package postgres

import (
	"context"

	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (r *AnswerPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.AnswerRecord, error) {
	var records []*models.AnswerRecord
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AnswerPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.AnswerRecord, error) {
	var record models.AnswerRecord
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *AnswerPostgreSQL) Create(ctx context.Context, record *models.AnswerRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *AnswerPostgreSQL) Update(ctx context.Context, record *models.AnswerRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
