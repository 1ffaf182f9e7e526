package repositories

import (
	"context"

	"github.com/SDN-2025/exam-session-service/internal/models"
)

// ProctoringRepository is append-only: events are never updated or
// deleted by the core. ListByAttempt returns events in receipt order.
type ProctoringRepository interface {
	Append(ctx context.Context, event *models.ProctoringEvent) error
	ListByAttempt(ctx context.Context, attemptID uint) ([]*models.ProctoringEvent, error)
	CountWarnings(ctx context.Context, attemptID uint) (int64, error)
}

// ReviewRepository persists cached topic labels and generated follow-up
// questions for the remediation flow.
type ReviewRepository interface {
	GetTopicByQuestion(ctx context.Context, questionID uint) (*models.Topic, error)
	GetTopicByName(ctx context.Context, name string) (*models.Topic, error)
	CreateTopic(ctx context.Context, topic *models.Topic) error

	GetFollowups(ctx context.Context, attemptID uint, topicID uint) ([]*models.FollowupQuestion, error)
	GetFollowupsByAttempt(ctx context.Context, attemptID uint) ([]*models.FollowupQuestion, error)
	CreateFollowup(ctx context.Context, q *models.FollowupQuestion) error
	UpdateFollowup(ctx context.Context, q *models.FollowupQuestion) error
}
