package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SDN-2025/exam-session-service/internal/events"
	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
)

// ===== PER-ATTEMPT LOCKING =====

// attemptLocks hands out one mutex per attempt ID. Entries are
// reference-counted and dropped when the last holder unlocks, so the
// map does not grow with the number of attempts ever seen.
type attemptLocks struct {
	mu      sync.Mutex
	entries map[uint]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newAttemptLocks() *attemptLocks {
	return &attemptLocks{entries: make(map[uint]*lockEntry)}
}

// Lock blocks until the attempt's mutex is held and returns the
// matching unlock function.
func (l *attemptLocks) Lock(attemptID uint) func() {
	l.mu.Lock()
	entry, ok := l.entries[attemptID]
	if !ok {
		entry = &lockEntry{}
		l.entries[attemptID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, attemptID)
		}
		l.mu.Unlock()
	}
}

// ===== DEADLINE =====

// computeDeadline picks the earlier of the test's closing time and the
// student's personal duration budget.
func computeDeadline(test *models.Test, startedAt time.Time) time.Time {
	deadline := startedAt.Add(time.Duration(test.DurationMinutes) * time.Minute)
	if test.EndTime != nil && test.EndTime.Before(deadline) {
		deadline = *test.EndTime
	}
	return deadline
}

// stepIndex moves one position in the given direction, clamped so steps
// past either edge stay put.
func stepIndex(current int, direction NavDirection, total int) int {
	switch direction {
	case NavNext:
		if current+1 < total {
			return current + 1
		}
	case NavPrev:
		if current > 0 {
			return current - 1
		}
	}
	return current
}

func answersByQuestion(answers []*models.AnswerRecord) map[uint]*models.AnswerRecord {
	byQuestion := make(map[uint]*models.AnswerRecord, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	return byQuestion
}

// ===== ATTEMPT GUARDS =====

// ownedAttempt fetches the attempt and verifies the student owns it.
func (s *sessionService) ownedAttempt(ctx context.Context, studentID string, attemptID uint) (*models.TestAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", "access", "not owned by student")
	}
	return attempt, nil
}

// liveAttemptLocked returns the attempt only while it still accepts
// mutations. A passed deadline is not an error by itself: the attempt
// is finalized as a timeout first, then the caller's request is
// rejected as already submitted. The caller must hold the attempt lock.
func (s *sessionService) liveAttemptLocked(ctx context.Context, studentID string, attemptID uint) (*models.TestAttempt, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted {
		return nil, ErrAttemptAlreadySubmitted
	}
	if attempt.RemainingSeconds(s.now()) <= 0 {
		if _, err := s.finalizeLocked(ctx, attemptID, models.SubmitTimeout); err != nil {
			return nil, err
		}
		return nil, ErrAttemptTimeExpired
	}
	return attempt, nil
}

// ===== FINALIZATION =====

// finalizeLocked submits the attempt: it rescans every answer record,
// derives the counts and score from that scan alone, and stamps the
// cause. Re-finalizing a submitted attempt is a no-op that returns the
// stored result; the first cause wins. The caller must hold the
// attempt lock.
func (s *sessionService) finalizeLocked(ctx context.Context, attemptID uint, cause models.SubmitCause) (*models.TestAttempt, error) {
	var finalized *models.TestAttempt
	var didFinalize bool

	err := s.repo.Transaction(ctx, func(tx repositories.Repository) error {
		attempt, err := tx.Attempt().GetByID(ctx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if attempt.Submitted {
			finalized = attempt
			return nil
		}

		test, err := tx.Test().GetByIDWithQuestions(ctx, attempt.TestID)
		if err != nil {
			return fmt.Errorf("failed to get test: %w", err)
		}
		answers, err := tx.Answer().GetByAttempt(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}

		correct := 0
		for _, a := range answers {
			if a.IsCorrect {
				correct++
			}
		}

		now := s.now()
		attempt.TotalQuestions = len(test.Questions)
		attempt.CorrectCount = correct
		attempt.WrongCount = len(answers) - correct
		attempt.Score = correct
		attempt.Submitted = true
		attempt.SubmittedAt = &now
		attempt.SubmitCause = &cause
		attempt.AutoSubmittedForViolation = cause == models.SubmitViolation

		if err := tx.Attempt().Update(ctx, attempt); err != nil {
			return fmt.Errorf("failed to update attempt: %w", err)
		}
		finalized = attempt
		didFinalize = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if didFinalize {
		s.logger.Info("attempt submitted",
			"attempt_id", finalized.ID,
			"student_id", finalized.StudentID,
			"cause", cause,
			"score", finalized.Score,
			"correct", finalized.CorrectCount,
			"wrong", finalized.WrongCount)
		s.publish(ctx, events.NewAttemptSubmittedEvent(finalized))
	}

	return finalized, nil
}

// publish sends an event without letting broker trouble fail the
// student-facing request.
func (s *sessionService) publish(ctx context.Context, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.Type, "error", err)
	}
}
