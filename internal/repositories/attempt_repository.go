package repositories

import (
	"context"

	"github.com/SDN-2025/exam-session-service/internal/models"
)

// AttemptRepository persists test attempts. The (student, test) pair is
// unique; GetOrCreate is the only creation path.
type AttemptRepository interface {
	GetByID(ctx context.Context, id uint) (*models.TestAttempt, error)
	GetByStudentAndTest(ctx context.Context, studentID string, testID uint) (*models.TestAttempt, error)

	// GetOrCreate returns the existing attempt for (studentID, testID) or
	// inserts a fresh one from the template. The returned bool is true
	// when a new row was created.
	GetOrCreate(ctx context.Context, template *models.TestAttempt) (*models.TestAttempt, bool, error)

	Update(ctx context.Context, attempt *models.TestAttempt) error
}

// AnswerRepository persists per-question answer records for an attempt.
type AnswerRepository interface {
	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.AnswerRecord, error)
	GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.AnswerRecord, error)
	Create(ctx context.Context, record *models.AnswerRecord) error
	Update(ctx context.Context, record *models.AnswerRecord) error
}
