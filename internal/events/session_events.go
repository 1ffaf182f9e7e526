package events

import (
	"time"

	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/google/uuid"
)

// EventType represents the session and integrity events this service
// emits for downstream consumers (notification service, analytics).
type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"

	EventProctoringViolation    EventType = "proctoring.violation"
	EventProctoringForcedSubmit EventType = "proctoring.forced_submit"
)

// SessionEvent is the envelope for all published events.
type SessionEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

const (
	eventSource  = "exam-session-service"
	eventVersion = "1.0"
)

type AttemptStartedEvent struct {
	AttemptID uint      `json:"attempt_id"`
	TestID    uint      `json:"test_id"`
	StudentID string    `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
}

type AttemptSubmittedEvent struct {
	AttemptID   uint               `json:"attempt_id"`
	TestID      uint               `json:"test_id"`
	StudentID   string             `json:"student_id"`
	Cause       models.SubmitCause `json:"cause"`
	Score       int                `json:"score"`
	Correct     int                `json:"correct"`
	Wrong       int                `json:"wrong"`
	Total       int                `json:"total"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

type ProctoringViolationEvent struct {
	AttemptID    uint                       `json:"attempt_id"`
	StudentID    string                     `json:"student_id"`
	Condition    models.SuspiciousCondition `json:"condition"`
	WarningCount int                        `json:"warning_count"`
	ObservedAt   time.Time                  `json:"observed_at"`
}

type ProctoringForcedSubmitEvent struct {
	AttemptID  uint      `json:"attempt_id"`
	StudentID  string    `json:"student_id"`
	ForcedAt   time.Time `json:"forced_at"`
	FinalScore int       `json:"final_score"`
}

func newEvent(eventType EventType, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewAttemptStartedEvent(attempt *models.TestAttempt) *SessionEvent {
	deadline := time.Time{}
	if attempt.Deadline != nil {
		deadline = *attempt.Deadline
	}
	return newEvent(EventAttemptStarted, AttemptStartedEvent{
		AttemptID: attempt.ID,
		TestID:    attempt.TestID,
		StudentID: attempt.StudentID,
		StartedAt: attempt.StartedAt,
		Deadline:  deadline,
	})
}

func NewAttemptSubmittedEvent(attempt *models.TestAttempt) *SessionEvent {
	cause := models.SubmitManual
	if attempt.SubmitCause != nil {
		cause = *attempt.SubmitCause
	}
	submittedAt := time.Now()
	if attempt.SubmittedAt != nil {
		submittedAt = *attempt.SubmittedAt
	}
	return newEvent(EventAttemptSubmitted, AttemptSubmittedEvent{
		AttemptID:   attempt.ID,
		TestID:      attempt.TestID,
		StudentID:   attempt.StudentID,
		Cause:       cause,
		Score:       attempt.Score,
		Correct:     attempt.CorrectCount,
		Wrong:       attempt.WrongCount,
		Total:       attempt.TotalQuestions,
		SubmittedAt: submittedAt,
	})
}

func NewProctoringViolationEvent(attemptID uint, studentID string, condition models.SuspiciousCondition, warningCount int, observedAt time.Time) *SessionEvent {
	return newEvent(EventProctoringViolation, ProctoringViolationEvent{
		AttemptID:    attemptID,
		StudentID:    studentID,
		Condition:    condition,
		WarningCount: warningCount,
		ObservedAt:   observedAt,
	})
}

func NewProctoringForcedSubmitEvent(attempt *models.TestAttempt, forcedAt time.Time) *SessionEvent {
	return newEvent(EventProctoringForcedSubmit, ProctoringForcedSubmitEvent{
		AttemptID:  attempt.ID,
		StudentID:  attempt.StudentID,
		ForcedAt:   forcedAt,
		FinalScore: attempt.Score,
	})
}
