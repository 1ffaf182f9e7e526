package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
)

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

// ExportAttemptReport builds a workbook with a result summary sheet and
// the full integrity event log for one submitted attempt.
func (s *reportService) ExportAttemptReport(ctx context.Context, studentID string, attemptID uint) (*excelize.File, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", "export", "not owned by student")
	}
	if !attempt.Submitted {
		return nil, ErrReviewNotAvailable
	}

	test, err := s.repo.Test().GetByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	proctoringEvents, err := s.repo.Proctoring().ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proctoring events: %w", err)
	}
	warnings, err := s.repo.Proctoring().CountWarnings(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to count warnings: %w", err)
	}

	f := excelize.NewFile()

	if err := s.writeSummarySheet(f, attempt, test, warnings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportExportFailed, err)
	}
	if err := s.writeEventSheet(f, proctoringEvents); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportExportFailed, err)
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportExportFailed, err)
	}

	return f, nil
}

func (s *reportService) writeSummarySheet(f *excelize.File, attempt *models.TestAttempt, test *models.Test, warnings int64) error {
	sheetName := "Summary"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	cause := ""
	if attempt.SubmitCause != nil {
		cause = string(*attempt.SubmitCause)
	}
	submittedAt := ""
	if attempt.SubmittedAt != nil {
		submittedAt = attempt.SubmittedAt.Format(time.RFC3339)
	}

	rows := [][]interface{}{
		{"Test", test.Name},
		{"Student", attempt.StudentID},
		{"Started At", attempt.StartedAt.Format(time.RFC3339)},
		{"Submitted At", submittedAt},
		{"Submit Cause", cause},
		{"Auto-Submitted For Violation", attempt.AutoSubmittedForViolation},
		{"Warnings", warnings},
		{"Total Questions", attempt.TotalQuestions},
		{"Correct", attempt.CorrectCount},
		{"Wrong", attempt.WrongCount},
		{"Score", attempt.Score},
	}
	for i, row := range rows {
		for j, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (s *reportService) writeEventSheet(f *excelize.File, eventLog []*models.ProctoringEvent) error {
	sheetName := "Integrity Log"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{
		"Time", "Face Present", "Multiple Faces", "Mobile Detected",
		"Gaze Off Screen", "Suspicious", "Forced Submit",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, event := range eventLog {
		suspicious := ""
		if event.Suspicious != nil {
			suspicious = string(*event.Suspicious)
		}
		row := []interface{}{
			event.CreatedAt.Format(time.RFC3339),
			event.FacePresent,
			event.MultipleFaces,
			event.MobileDetected,
			event.GazeOffScreen,
			suspicious,
			event.ForcedSubmit,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}
