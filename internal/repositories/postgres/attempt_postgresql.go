package postgres

import (
	"context"

	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByStudentAndTest(ctx context.Context, studentID string, testID uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := a.db.WithContext(ctx).
		Where("student_id = ? AND test_id = ?", studentID, testID).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetOrCreate(ctx context.Context, template *models.TestAttempt) (*models.TestAttempt, bool, error) {
	// The unique (student_id, test_id) index makes the insert race-safe;
	// a losing writer falls through to the existing row.
	res := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "test_id"}},
			DoNothing: true,
		}).
		Create(template)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return template, true, nil
	}

	existing, err := a.GetByStudentAndTest(ctx, template.StudentID, template.TestID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, attempt *models.TestAttempt) error {
	return a.db.WithContext(ctx).Save(attempt).Error
}
