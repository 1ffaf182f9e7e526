package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SDN-2025/exam-session-service/internal/events"
	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"github.com/SDN-2025/exam-session-service/internal/utils"
)

type sessionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator

	// locks serializes mutations per attempt so a manual submit, a
	// timeout and a forced submit racing each other resolve to exactly
	// one finalization.
	locks *attemptLocks

	now func() time.Time
}

func NewSessionService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) SessionService {
	return &sessionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		locks:     newAttemptLocks(),
		now:       time.Now,
	}
}

// ===== ENTRY =====

func (s *sessionService) BeginOrResume(ctx context.Context, studentID string, testID uint) (*AttemptResponse, error) {
	test, err := s.repo.Test().GetByIDWithQuestions(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	classID, err := s.repo.Test().ClassForTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve class for test: %w", err)
	}
	enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, studentID, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	now := s.now()
	if now.Before(test.StartTime) {
		return nil, ErrTestNotYetOpen
	}
	if test.EndTime != nil && now.After(*test.EndTime) {
		return nil, ErrTestAlreadyClosed
	}

	attempt, created, err := s.repo.Attempt().GetOrCreate(ctx, &models.TestAttempt{
		TestID:    testID,
		StudentID: studentID,
		StartedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get or create attempt: %w", err)
	}

	unlock := s.locks.Lock(attempt.ID)
	defer unlock()

	if attempt.Deadline == nil {
		deadline := computeDeadline(test, attempt.StartedAt)
		attempt.Deadline = &deadline
		if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
			return nil, fmt.Errorf("failed to persist deadline: %w", err)
		}
	}

	if created {
		s.logger.Info("attempt started",
			"attempt_id", attempt.ID,
			"test_id", testID,
			"student_id", studentID,
			"deadline", attempt.Deadline)
		s.publish(ctx, events.NewAttemptStartedEvent(attempt))
	}

	if attempt.Submitted {
		return &AttemptResponse{Attempt: attempt}, nil
	}

	remaining := attempt.RemainingSeconds(now)
	if remaining <= 0 {
		attempt, err = s.finalizeLocked(ctx, attempt.ID, models.SubmitTimeout)
		if err != nil {
			return nil, err
		}
		return &AttemptResponse{Attempt: attempt}, nil
	}

	return &AttemptResponse{Attempt: attempt, RemainingSeconds: remaining}, nil
}

// ===== QUESTION VIEW =====

func (s *sessionService) GetQuestionView(ctx context.Context, studentID string, attemptID uint, index int) (*QuestionViewResponse, error) {
	return s.questionView(ctx, studentID, attemptID, func(total int) (int, error) {
		if index < 0 || index >= total {
			return 0, fmt.Errorf("%w: index %d of %d", ErrQuestionOutOfRange, index, total)
		}
		return index, nil
	})
}

// Navigate serves the question one step from current. Steps past either
// edge stay on the edge question; navigation never persists an answer.
func (s *sessionService) Navigate(ctx context.Context, studentID string, attemptID uint, current int, direction NavDirection) (*QuestionViewResponse, error) {
	if direction != NavNext && direction != NavPrev {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrValidationFailed, direction)
	}
	return s.questionView(ctx, studentID, attemptID, func(total int) (int, error) {
		if current < 0 || current >= total {
			return 0, fmt.Errorf("%w: index %d of %d", ErrQuestionOutOfRange, current, total)
		}
		return stepIndex(current, direction, total), nil
	})
}

// questionView serves one question with the attempt's full navigation
// state; resolve picks the index once the question count is known.
func (s *sessionService) questionView(ctx context.Context, studentID string, attemptID uint, resolve func(total int) (int, error)) (*QuestionViewResponse, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.liveAttemptLocked(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	index, err := resolve(len(test.Questions))
	if err != nil {
		return nil, err
	}
	question := &test.Questions[index]

	answers, err := s.repo.Answer().GetByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	byQuestion := answersByQuestion(answers)

	// Viewing a question creates its record, which is what makes
	// "visited" survive navigation.
	current := byQuestion[question.ID]
	if current == nil {
		current = &models.AnswerRecord{AttemptID: attemptID, QuestionID: question.ID}
		if err := s.repo.Answer().Create(ctx, current); err != nil {
			return nil, fmt.Errorf("failed to create answer record: %w", err)
		}
		byQuestion[question.ID] = current
	}

	states := make([]models.VisitState, len(test.Questions))
	for i := range test.Questions {
		q := &test.Questions[i]
		states[i] = models.DeriveVisitState(byQuestion[q.ID], i == index)
	}

	return &QuestionViewResponse{
		Question: QuestionView{
			Index:   index,
			ID:      question.ID,
			Text:    question.Text,
			Options: question.Options(),
			Marks:   question.Marks,
		},
		TotalQuestions:   len(test.Questions),
		SelectedOption:   current.SelectedOption,
		MarkedForReview:  current.MarkedForReview,
		VisitStates:      states,
		RemainingSeconds: attempt.RemainingSeconds(s.now()),
	}, nil
}

// ===== ANSWER CAPTURE =====

func (s *sessionService) SaveAnswer(ctx context.Context, studentID string, attemptID uint, req *SaveAnswerRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.liveAttemptLocked(ctx, studentID, attemptID)
	if err != nil {
		return err
	}

	question, err := s.repo.Test().GetQuestion(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotInTest
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.TestID != attempt.TestID {
		return ErrQuestionNotInTest
	}

	record, err := s.repo.Answer().GetByAttemptAndQuestion(ctx, attemptID, req.QuestionID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to get answer record: %w", err)
	}
	if record == nil {
		record = &models.AnswerRecord{AttemptID: attemptID, QuestionID: req.QuestionID}
		if err := s.repo.Answer().Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create answer record: %w", err)
		}
	}

	// An empty selection preserves the prior one; the review flag is
	// always taken from the request.
	if req.SelectedOption != nil && *req.SelectedOption != "" {
		if !models.ValidOption(*req.SelectedOption) {
			return ErrInvalidOption
		}
		selected := *req.SelectedOption
		record.SelectedOption = &selected
		record.IsCorrect = selected == question.CorrectOption
	}
	record.MarkedForReview = req.MarkForReview

	if err := s.repo.Answer().Update(ctx, record); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

func (s *sessionService) ClearAnswer(ctx context.Context, studentID string, attemptID uint, questionID uint) error {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	if _, err := s.liveAttemptLocked(ctx, studentID, attemptID); err != nil {
		return err
	}

	record, err := s.repo.Answer().GetByAttemptAndQuestion(ctx, attemptID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Nothing to clear.
			return nil
		}
		return fmt.Errorf("failed to get answer record: %w", err)
	}

	record.SelectedOption = nil
	record.IsCorrect = false
	if err := s.repo.Answer().Update(ctx, record); err != nil {
		return fmt.Errorf("failed to clear answer: %w", err)
	}
	return nil
}

// ===== TIME AND SUBMISSION =====

func (s *sessionService) TimeRemaining(ctx context.Context, studentID string, attemptID uint) (*TimeRemainingResponse, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted {
		return &TimeRemainingResponse{Submitted: true}, nil
	}

	remaining := attempt.RemainingSeconds(s.now())
	if remaining <= 0 {
		if _, err := s.finalizeLocked(ctx, attemptID, models.SubmitTimeout); err != nil {
			return nil, err
		}
		return &TimeRemainingResponse{Submitted: true}, nil
	}
	return &TimeRemainingResponse{RemainingSeconds: remaining}, nil
}

func (s *sessionService) Submit(ctx context.Context, studentID string, attemptID uint) (*AttemptResponse, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}

	cause := models.SubmitManual
	if !attempt.Submitted && attempt.RemainingSeconds(s.now()) <= 0 {
		cause = models.SubmitTimeout
	}

	attempt, err = s.finalizeLocked(ctx, attemptID, cause)
	if err != nil {
		return nil, err
	}
	return &AttemptResponse{Attempt: attempt}, nil
}

func (s *sessionService) Finalize(ctx context.Context, attemptID uint, cause models.SubmitCause) (*models.TestAttempt, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()
	return s.finalizeLocked(ctx, attemptID, cause)
}
