package models

// OptionLetter identifies one of a question's four choices.
type OptionLetter string

const (
	OptionA OptionLetter = "A"
	OptionB OptionLetter = "B"
	OptionC OptionLetter = "C"
	OptionD OptionLetter = "D"
)

// ValidOption reports whether s names one of the four option letters.
func ValidOption(s string) bool {
	switch OptionLetter(s) {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Question is read-only to this core; authoring lives in the content
// service. Topic and Difficulty feed the review/remediation flow.
type Question struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	TestID uint `json:"test_id" gorm:"not null;index"`

	Text          string `json:"text" gorm:"type:text;not null"`
	OptionA       string `json:"option_a" gorm:"size:255;not null"`
	OptionB       string `json:"option_b" gorm:"size:255;not null"`
	OptionC       string `json:"option_c" gorm:"size:255;not null"`
	OptionD       string `json:"option_d" gorm:"size:255;not null"`
	CorrectOption string `json:"-" gorm:"size:1;not null"`
	Marks         int    `json:"marks" gorm:"default:1"`

	Topic      *string `json:"topic" gorm:"size:100"`
	Difficulty *string `json:"difficulty" gorm:"size:20"`
}

func (Question) TableName() string {
	return "questions"
}

// Options returns the four choices keyed by letter, the shape the
// question view hands to clients.
func (q *Question) Options() map[OptionLetter]string {
	return map[OptionLetter]string{
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
	}
}
