package postgres

import (
	"context"

	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

type ReviewPostgreSQL struct {
	db *gorm.DB
}

func NewReviewPostgreSQL(db *gorm.DB) repositories.ReviewRepository {
	return &ReviewPostgreSQL{db: db}
}

func (r *ReviewPostgreSQL) GetTopicByQuestion(ctx context.Context, questionID uint) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		First(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *ReviewPostgreSQL) GetTopicByName(ctx context.Context, name string) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *ReviewPostgreSQL) CreateTopic(ctx context.Context, topic *models.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *ReviewPostgreSQL) GetFollowups(ctx context.Context, attemptID uint, topicID uint) ([]*models.FollowupQuestion, error) {
	var followups []*models.FollowupQuestion
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ? AND topic_id = ?", attemptID, topicID).
		Order("id").
		Find(&followups).Error; err != nil {
		return nil, err
	}
	return followups, nil
}

func (r *ReviewPostgreSQL) GetFollowupsByAttempt(ctx context.Context, attemptID uint) ([]*models.FollowupQuestion, error) {
	var followups []*models.FollowupQuestion
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("id").
		Find(&followups).Error; err != nil {
		return nil, err
	}
	return followups, nil
}

func (r *ReviewPostgreSQL) CreateFollowup(ctx context.Context, q *models.FollowupQuestion) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *ReviewPostgreSQL) UpdateFollowup(ctx context.Context, q *models.FollowupQuestion) error {
	return r.db.WithContext(ctx).Save(q).Error
}
