package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SDN-2025/exam-session-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Test / enrollment errors
	ErrTestNotFound      = errors.New("test not found")
	ErrNotEnrolled       = errors.New("student is not enrolled in the test's class")
	ErrTestNotYetOpen    = errors.New("test has not opened yet")
	ErrTestAlreadyClosed = errors.New("test window has closed")

	// Attempt errors
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAccessDenied     = errors.New("access denied to attempt")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptTimeExpired      = errors.New("attempt time has expired")
	ErrQuestionNotInTest       = errors.New("question does not belong to the attempt's test")
	ErrQuestionOutOfRange      = errors.New("question index out of range")
	ErrInvalidOption           = errors.New("selected option must be one of A, B, C, D")

	// Proctoring errors
	ErrFrameDecodeFailed = errors.New("frame image could not be decoded")
	ErrAnalysisFailed    = errors.New("frame analysis backend failed")

	// Review / report errors
	ErrReviewNotAvailable = errors.New("review is only available after submission")
	ErrFollowupNotFound   = errors.New("follow-up question not found")
	ErrGenerationFailed   = errors.New("content generation failed")
	ErrReportExportFailed = errors.New("report export failed")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	StudentID  string `json:"student_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: student %s cannot %s %s %d - %s",
		pe.StudentID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error {
	return ErrAttemptAccessDenied
}

func NewPermissionError(studentID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		StudentID:  studentID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== ERROR CLASSIFICATION =====

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrQuestionOutOfRange) ||
		errors.Is(err, ErrFollowupNotFound)
}

func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAttemptAccessDenied) || errors.Is(err, ErrNotEnrolled)
}

func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrTestNotYetOpen) ||
		errors.Is(err, ErrTestAlreadyClosed) ||
		errors.Is(err, ErrAttemptAlreadySubmitted) ||
		errors.Is(err, ErrAttemptTimeExpired) ||
		errors.Is(err, ErrReviewNotAvailable)
}

func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrQuestionNotInTest) ||
		errors.Is(err, ErrFrameDecodeFailed) {
		return true
	}
	var ve ValidationErrors
	return errors.As(err, &ve)
}
