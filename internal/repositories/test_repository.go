package repositories

import (
	"context"

	"github.com/SDN-2025/exam-session-service/internal/models"
)

// TestReadRepository is the read-only view over externally authored
// content. Questions come back in their authored order.
type TestReadRepository interface {
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error)
	GetQuestion(ctx context.Context, id uint) (*models.Question, error)

	// ClassForTest resolves the class a test belongs to through its
	// chapter, for the enrollment gate.
	ClassForTest(ctx context.Context, testID uint) (uint, error)
}

// EnrollmentRepository is the narrow enrollment-lookup collaborator.
type EnrollmentRepository interface {
	IsEnrolled(ctx context.Context, studentID string, classID uint) (bool, error)
}
