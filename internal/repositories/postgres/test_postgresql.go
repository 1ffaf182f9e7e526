package postgres

import (
	"context"

	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestReadRepository {
	return &TestPostgreSQL{db: db}
}

func (r *TestPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	if err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id")
		}).
		First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *TestPostgreSQL) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *TestPostgreSQL) ClassForTest(ctx context.Context, testID uint) (uint, error) {
	var classID uint
	err := r.db.WithContext(ctx).
		Model(&models.Test{}).
		Select("chapters.class_id").
		Joins("JOIN chapters ON chapters.id = tests.chapter_id").
		Where("tests.id = ?", testID).
		Scan(&classID).Error
	if err != nil {
		return 0, err
	}
	if classID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return classID, nil
}

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (r *EnrollmentPostgreSQL) IsEnrolled(ctx context.Context, studentID string, classID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND class_id = ?", studentID, classID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
