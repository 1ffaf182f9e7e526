package models

import "time"

// Test and its parents are authored by the content service; this core
// only reads them. A test's activity window is [StartTime, EndTime] when
// EndTime is set, open-ended otherwise; DurationMinutes is the
// per-student time budget inside that window.
type Test struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null;size:100"`
	ChapterID uint   `json:"chapter_id" gorm:"not null;index"`

	StartTime       time.Time  `json:"start_time" gorm:"not null"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes" gorm:"not null"`
	MaxScore        int        `json:"max_score" gorm:"default:100"`

	// Relations
	Chapter   Chapter    `json:"-" gorm:"foreignKey:ChapterID"`
	Questions []Question `json:"questions" gorm:"foreignKey:TestID"`
}

func (Test) TableName() string {
	return "tests"
}

type Chapter struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;size:100"`
	ClassID uint   `json:"class_id" gorm:"not null;index"`
}

func (Chapter) TableName() string {
	return "chapters"
}
