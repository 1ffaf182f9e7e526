package models

import "time"

// Enrollment links a student to a class. Account and roster management
// live elsewhere; the session engine only reads this to gate test entry.
type Enrollment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	StudentID string    `json:"student_id" gorm:"not null;size:255;index:idx_enrollment_student_class,unique"`
	ClassID   uint      `json:"class_id" gorm:"not null;index:idx_enrollment_student_class,unique"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
