package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates the per-domain repositories the services depend
// on. Transaction runs fn against a repository bound to one database
// transaction; returning an error rolls everything back.
type Repository interface {
	Attempt() AttemptRepository
	Answer() AnswerRepository
	Test() TestReadRepository
	Enrollment() EnrollmentRepository
	Proctoring() ProctoringRepository
	Review() ReviewRepository

	Transaction(ctx context.Context, fn func(Repository) error) error
}

// IsNotFoundError reports whether err is the driver's "no rows" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
