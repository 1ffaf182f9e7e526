package postgres

import (
	"context"

	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB

	attempt    repositories.AttemptRepository
	answer     repositories.AnswerRepository
	test       repositories.TestReadRepository
	enrollment repositories.EnrollmentRepository
	proctoring repositories.ProctoringRepository
	review     repositories.ReviewRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		db:         db,
		attempt:    NewAttemptPostgreSQL(db),
		answer:     NewAnswerPostgreSQL(db),
		test:       NewTestPostgreSQL(db),
		enrollment: NewEnrollmentPostgreSQL(db),
		proctoring: NewProctoringPostgreSQL(db),
		review:     NewReviewPostgreSQL(db),
	}
}

func (r *gormRepository) Attempt() repositories.AttemptRepository       { return r.attempt }
func (r *gormRepository) Answer() repositories.AnswerRepository         { return r.answer }
func (r *gormRepository) Test() repositories.TestReadRepository         { return r.test }
func (r *gormRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }
func (r *gormRepository) Proctoring() repositories.ProctoringRepository { return r.proctoring }
func (r *gormRepository) Review() repositories.ReviewRepository         { return r.review }

func (r *gormRepository) Transaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
