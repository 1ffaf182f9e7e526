package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SDN-2025/exam-session-service/internal/events"
	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/proctoring"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"github.com/SDN-2025/exam-session-service/internal/vision"
)

type proctoringService struct {
	repo       repositories.Repository
	sessions   SessionService
	classifier FrameClassifier
	ledger     *proctoring.Ledger
	publisher  events.EventPublisher
	logger     *slog.Logger

	now func() time.Time
}

func NewProctoringService(
	repo repositories.Repository,
	sessions SessionService,
	classifier FrameClassifier,
	ledger *proctoring.Ledger,
	publisher events.EventPublisher,
	logger *slog.Logger,
) ProctoringService {
	return &proctoringService{
		repo:       repo,
		sessions:   sessions,
		classifier: classifier,
		ledger:     ledger,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// AnalyzeFrame runs one full analysis cycle: classify the frame, derive
// the single anomaly label, consult the warning ledger, append the
// event, and escalate to a forced submit when the threshold is hit. A
// frame that fails to decode leaves no trace: no event, no warning.
func (s *proctoringService) AnalyzeFrame(ctx context.Context, studentID string, attemptID uint, frame []byte) (*FrameAnalysisResponse, error) {
	if _, err := s.ownedLiveAttempt(ctx, studentID, attemptID); err != nil {
		return nil, err
	}

	result, err := s.classifier.Classify(ctx, frame)
	if err != nil {
		if errors.Is(err, vision.ErrDecodeFailed) {
			return nil, fmt.Errorf("%w: %v", ErrFrameDecodeFailed, err)
		}
		s.logger.Error("frame classification failed",
			"attempt_id", attemptID,
			"student_id", studentID,
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	suspicious := proctoring.Classify(result)
	now := s.now()

	obs, err := s.ledger.Assess(ctx, studentID, attemptID, suspicious != nil, now)
	if err != nil {
		return nil, fmt.Errorf("warning ledger: %w", err)
	}

	event := &models.ProctoringEvent{
		AttemptID:      attemptID,
		FacePresent:    result.FacePresent,
		MultipleFaces:  result.MultipleFaces,
		MobileDetected: result.MobileDetected,
		GazeOffScreen:  result.GazeOffScreen,
		Suspicious:     suspicious,
		ForcedSubmit:   obs.ForcedSubmit,
	}
	if len(result.Detections) > 0 {
		raw, merr := json.Marshal(result.Detections)
		if merr == nil {
			event.Detections = raw
		}
	}
	// The event is written before the warning state: a failed append
	// aborts the cycle without advancing the counter.
	if err := s.repo.Proctoring().Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append proctoring event: %w", err)
	}
	if err := s.ledger.Commit(ctx, obs); err != nil {
		return nil, fmt.Errorf("warning ledger: %w", err)
	}

	response := &FrameAnalysisResponse{
		Suspicious:   suspicious,
		WarningCount: obs.Count,
		ForcedSubmit: obs.ForcedSubmit,
		Result:       result,
	}
	response.Message = proctoring.Message(suspicious)

	if obs.Accepted && suspicious != nil {
		acceptedCount := obs.Count
		if obs.ForcedSubmit {
			acceptedCount = proctoring.WarningThreshold
		}
		s.logger.Warn("proctoring warning accepted",
			"attempt_id", attemptID,
			"student_id", studentID,
			"condition", *suspicious,
			"warning_count", acceptedCount)
		s.publish(ctx, events.NewProctoringViolationEvent(attemptID, studentID, *suspicious, acceptedCount, now))
	}

	if obs.ForcedSubmit {
		finalized, err := s.sessions.Finalize(ctx, attemptID, models.SubmitViolation)
		if err != nil {
			return nil, fmt.Errorf("forced submission failed: %w", err)
		}
		s.logger.Warn("attempt force-submitted for repeated violations",
			"attempt_id", attemptID,
			"student_id", studentID,
			"score", finalized.Score)
		s.publish(ctx, events.NewProctoringForcedSubmitEvent(finalized, now))
	}

	return response, nil
}

func (s *proctoringService) ListEvents(ctx context.Context, studentID string, attemptID uint) ([]*models.ProctoringEvent, error) {
	if _, err := s.ownedAttempt(ctx, studentID, attemptID); err != nil {
		return nil, err
	}
	list, err := s.repo.Proctoring().ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proctoring events: %w", err)
	}
	return list, nil
}

func (s *proctoringService) ownedAttempt(ctx context.Context, studentID string, attemptID uint) (*models.TestAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", "monitor", "not owned by student")
	}
	return attempt, nil
}

// ownedLiveAttempt rejects frames for terminal attempts. A passed
// deadline finalizes the attempt as a timeout before rejecting.
func (s *proctoringService) ownedLiveAttempt(ctx context.Context, studentID string, attemptID uint) (*models.TestAttempt, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted {
		return nil, ErrAttemptAlreadySubmitted
	}
	if attempt.RemainingSeconds(s.now()) <= 0 {
		if _, err := s.sessions.Finalize(ctx, attemptID, models.SubmitTimeout); err != nil {
			return nil, err
		}
		return nil, ErrAttemptAlreadySubmitted
	}
	return attempt, nil
}

func (s *proctoringService) publish(ctx context.Context, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.Type, "error", err)
	}
}
