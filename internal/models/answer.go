package models

import "time"

// AnswerRecord is one row per (attempt, question), created lazily on the
// first interaction with the question and never deleted within a live
// attempt. IsCorrect is recomputed from the question's correct option on
// every selection change; it is never trusted from the client.
type AnswerRecord struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index:idx_answer_attempt_question,unique"`
	QuestionID uint `json:"question_id" gorm:"not null;index:idx_answer_attempt_question,unique"`

	SelectedOption  *string `json:"selected_option" gorm:"size:1"`
	IsCorrect       bool    `json:"is_correct" gorm:"default:false"`
	MarkedForReview bool    `json:"marked_for_review" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Question Question `json:"-" gorm:"foreignKey:QuestionID"`
}

func (AnswerRecord) TableName() string {
	return "answer_records"
}

// VisitState is the derived per-question UI status. It is a pure view
// over stored answer data; no separate visited flag is persisted.
type VisitState string

const (
	VisitStateReview     VisitState = "review"
	VisitStateAnswered   VisitState = "answered"
	VisitStateVisited    VisitState = "visited"
	VisitStateNotVisited VisitState = "not_visited"
)

// DeriveVisitState computes the state for one question given its answer
// record (nil if none) and whether the question is the one currently
// being requested.
func DeriveVisitState(ans *AnswerRecord, current bool) VisitState {
	switch {
	case ans != nil && ans.MarkedForReview:
		return VisitStateReview
	case ans != nil && ans.SelectedOption != nil && *ans.SelectedOption != "":
		return VisitStateAnswered
	case ans != nil || current:
		return VisitStateVisited
	default:
		return VisitStateNotVisited
	}
}
