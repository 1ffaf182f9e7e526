package proctoring

import (
	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/vision"
)

// Classify maps one structured detection result to at most one
// suspicious condition. Precedence is fixed and first-match-wins:
// a missing face is the most severe and ambiguous signal and must not
// be masked by a simultaneously detected phone.
func Classify(result vision.DetectionResult) *models.SuspiciousCondition {
	var cond models.SuspiciousCondition
	switch {
	case !result.FacePresent:
		cond = models.ConditionNoFace
	case result.MultipleFaces:
		cond = models.ConditionMultipleFaces
	case result.MobileDetected:
		cond = models.ConditionMobileDevice
	case result.GazeOffScreen:
		cond = models.ConditionGazeOffScreen
	default:
		return nil
	}
	return &cond
}

var conditionMessages = map[models.SuspiciousCondition]string{
	models.ConditionNoFace:        "We can't see you on camera. Please sit in front of it.",
	models.ConditionMultipleFaces: "Someone else is nearby. Make sure you're alone for the test.",
	models.ConditionMobileDevice:  "Mobile phone detected. Keep it away during the test.",
	models.ConditionGazeOffScreen: "Your eyes are off the screen. Focus on the test window.",
}

// Message returns the student-facing warning text for a condition, or ""
// for nil.
func Message(cond *models.SuspiciousCondition) string {
	if cond == nil {
		return ""
	}
	return conditionMessages[*cond]
}
