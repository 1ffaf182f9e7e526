package models

import "time"

// Topic is the cached generated label for one question, so the content
// generator is asked at most once per question.
type Topic struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	QuestionID uint      `json:"question_id" gorm:"not null;uniqueIndex"`
	Name       string    `json:"name" gorm:"not null;size:100"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Topic) TableName() string {
	return "topics"
}

// FollowupQuestion is a generated remedial MCQ tied to one weak topic of
// one attempt's review.
type FollowupQuestion struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	AttemptID uint   `json:"attempt_id" gorm:"not null;index"`
	StudentID string `json:"student_id" gorm:"not null;size:255;index"`
	TopicID   uint   `json:"topic_id" gorm:"not null;index"`

	Text          string `json:"text" gorm:"type:text;not null"`
	OptionA       string `json:"option_a" gorm:"size:255"`
	OptionB       string `json:"option_b" gorm:"size:255"`
	OptionC       string `json:"option_c" gorm:"size:255"`
	OptionD       string `json:"option_d" gorm:"size:255"`
	CorrectOption string `json:"-" gorm:"size:1"`

	StudentAnswer *string `json:"student_answer" gorm:"size:1"`
	IsAttempted   bool    `json:"is_attempted" gorm:"default:false"`
	IsCorrect     bool    `json:"is_correct" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Topic Topic `json:"-" gorm:"foreignKey:TopicID"`
}

func (FollowupQuestion) TableName() string {
	return "followup_questions"
}
