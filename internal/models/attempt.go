package models

import (
	"time"
)

type SubmitCause string

const (
	SubmitManual    SubmitCause = "manual"
	SubmitTimeout   SubmitCause = "timeout"
	SubmitViolation SubmitCause = "violation"
)

// TestAttempt is one student's timed instance of one test. At most one
// attempt exists per (student, test); the core never deletes it.
type TestAttempt struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	TestID    uint   `json:"test_id" gorm:"not null;index:idx_attempt_student_test,unique"`
	StudentID string `json:"student_id" gorm:"not null;size:255;index:idx_attempt_student_test,unique"`

	StartedAt time.Time `json:"started_at" gorm:"not null"`

	// Deadline is set at most once, on first entry, to
	// min(test.end_time, started_at + duration) and never decreases.
	Deadline *time.Time `json:"deadline"`

	TotalQuestions int `json:"total_questions" gorm:"default:0"`
	CorrectCount   int `json:"correct_count" gorm:"default:0"`
	WrongCount     int `json:"wrong_count" gorm:"default:0"`
	Score          int `json:"score" gorm:"default:0"`

	Submitted                 bool         `json:"submitted" gorm:"default:false;index"`
	SubmittedAt               *time.Time   `json:"submitted_at"`
	SubmitCause               *SubmitCause `json:"submit_cause" gorm:"size:20"`
	AutoSubmittedForViolation bool         `json:"auto_submitted_for_violation" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Test    Test           `json:"-" gorm:"foreignKey:TestID"`
	Answers []AnswerRecord `json:"-" gorm:"foreignKey:AttemptID"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

// InProgress reports whether the attempt still accepts mutations. The
// deadline is checked lazily by the session service, not here.
func (a *TestAttempt) InProgress() bool {
	return !a.Submitted
}

// RemainingSeconds is the whole seconds left until the deadline at now.
// Callers must have computed the deadline first.
func (a *TestAttempt) RemainingSeconds(now time.Time) int {
	if a.Deadline == nil {
		return 0
	}
	return int(a.Deadline.Sub(now).Seconds())
}
