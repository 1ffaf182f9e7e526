package models

import (
	"time"

	"gorm.io/datatypes"
)

// SuspiciousCondition is the single anomaly label derived from one frame,
// in fixed precedence order (no-face masks everything else).
type SuspiciousCondition string

const (
	ConditionNoFace        SuspiciousCondition = "no_face"
	ConditionMultipleFaces SuspiciousCondition = "multiple_faces"
	ConditionMobileDevice  SuspiciousCondition = "mobile_device"
	ConditionGazeOffScreen SuspiciousCondition = "gaze_off_screen"
)

// ProctoringEvent is the append-only record of one frame-analysis cycle.
// Exactly one event is written per successfully analyzed frame, whether
// or not it counted toward a warning; the core never mutates or deletes
// events.
type ProctoringEvent struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	AttemptID uint `json:"attempt_id" gorm:"not null;index"`

	FacePresent    bool `json:"face_present"`
	MultipleFaces  bool `json:"multiple_faces"`
	MobileDetected bool `json:"mobile_detected"`
	GazeOffScreen  bool `json:"gaze_off_screen"`

	Suspicious   *SuspiciousCondition `json:"suspicious" gorm:"size:30;index"`
	ForcedSubmit bool                 `json:"forced_submit" gorm:"default:false"`

	// Raw detector output kept for instructor review.
	Detections datatypes.JSON `json:"detections" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Relations
	Attempt TestAttempt `json:"-" gorm:"foreignKey:AttemptID"`
}

func (ProctoringEvent) TableName() string {
	return "proctoring_events"
}
