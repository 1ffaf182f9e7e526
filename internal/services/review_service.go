package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
)

// followupsPerTopic caps how many remedial questions are generated for
// each weak topic.
const followupsPerTopic = 2

type reviewService struct {
	repo      repositories.Repository
	generator ContentGenerator
	logger    *slog.Logger
}

func NewReviewService(repo repositories.Repository, generator ContentGenerator, logger *slog.Logger) ReviewService {
	return &reviewService{
		repo:      repo,
		generator: generator,
		logger:    logger,
	}
}

func (s *reviewService) GetReview(ctx context.Context, studentID string, attemptID uint) (*ReviewResponse, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.Submitted {
		return nil, ErrReviewNotAvailable
	}

	test, err := s.repo.Test().GetByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	answers, err := s.repo.Answer().GetByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	byQuestion := answersByQuestion(answers)

	questions := make([]ReviewQuestion, 0, len(test.Questions))
	weakTopics := make([]string, 0)
	seenTopics := make(map[string]struct{})

	for i := range test.Questions {
		q := &test.Questions[i]
		ans := byQuestion[q.ID]

		rq := ReviewQuestion{
			Index:         i,
			QuestionID:    q.ID,
			Text:          q.Text,
			Options:       q.Options(),
			CorrectOption: q.CorrectOption,
		}
		if ans != nil {
			rq.SelectedOption = ans.SelectedOption
			rq.IsCorrect = ans.IsCorrect
		}

		// The generator is only consulted for wrong answers; the rest
		// get whatever topic is already stored.
		answeredWrong := ans != nil && ans.SelectedOption != nil && !ans.IsCorrect
		topic := s.topicFor(ctx, q, answeredWrong)
		rq.Topic = topic

		if answeredWrong && topic != "" {
			if _, seen := seenTopics[topic]; !seen {
				seenTopics[topic] = struct{}{}
				weakTopics = append(weakTopics, topic)
			}
		}

		questions = append(questions, rq)
	}

	followups, err := s.ensureFollowups(ctx, attempt, weakTopics)
	if err != nil {
		return nil, err
	}

	return &ReviewResponse{
		Attempt:    attempt,
		Questions:  questions,
		WeakTopics: weakTopics,
		Followups:  followups,
	}, nil
}

func (s *reviewService) SubmitFollowups(ctx context.Context, studentID string, attemptID uint, req *FollowupAnswersRequest) (*FollowupResultResponse, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.Submitted {
		return nil, ErrReviewNotAvailable
	}

	followups, err := s.repo.Review().GetFollowupsByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load follow-up questions: %w", err)
	}

	byID := make(map[uint]*models.FollowupQuestion, len(followups))
	for _, f := range followups {
		byID[f.ID] = f
	}

	for id, selected := range req.Answers {
		f, ok := byID[id]
		if !ok {
			return nil, ErrFollowupNotFound
		}
		if !models.ValidOption(selected) {
			return nil, ErrInvalidOption
		}
		answer := selected
		f.StudentAnswer = &answer
		f.IsAttempted = true
		f.IsCorrect = answer == f.CorrectOption
		if err := s.repo.Review().UpdateFollowup(ctx, f); err != nil {
			return nil, fmt.Errorf("failed to save follow-up answer: %w", err)
		}
	}

	result := &FollowupResultResponse{Total: len(followups)}
	for _, f := range followups {
		if f.IsAttempted {
			result.Attempted++
		}
		if f.IsCorrect {
			result.Correct++
		}
	}
	if result.Total > 0 {
		result.Percentage = float64(result.Correct) / float64(result.Total) * 100
	}
	return result, nil
}

// topicFor resolves a question's topic label: the cached row first,
// then the authored topic field, then (only when generate is set) the
// content generator. Whatever resolves gets cached so the generator is
// asked at most once per question. A failure yields an empty topic,
// never an error; review must work without the generator.
func (s *reviewService) topicFor(ctx context.Context, q *models.Question, generate bool) string {
	cached, err := s.repo.Review().GetTopicByQuestion(ctx, q.ID)
	if err == nil && cached != nil {
		return cached.Name
	}
	if err != nil && !repositories.IsNotFoundError(err) {
		s.logger.Error("topic lookup failed", "question_id", q.ID, "error", err)
		return ""
	}

	name := ""
	if q.Topic != nil && *q.Topic != "" {
		name = *q.Topic
	} else if generate && s.generator != nil {
		generated, gerr := s.generator.TopicFor(ctx, q.Text)
		if gerr != nil {
			s.logger.Warn("topic generation failed", "question_id", q.ID, "error", gerr)
			return ""
		}
		name = generated
	}
	if name == "" {
		return ""
	}

	if err := s.repo.Review().CreateTopic(ctx, &models.Topic{QuestionID: q.ID, Name: name}); err != nil {
		s.logger.Warn("topic cache write failed", "question_id", q.ID, "error", err)
	}
	return name
}

// ensureFollowups returns the attempt's remedial questions, generating
// and persisting them on the first review of an attempt with weak
// topics.
func (s *reviewService) ensureFollowups(ctx context.Context, attempt *models.TestAttempt, weakTopics []string) ([]*models.FollowupQuestion, error) {
	existing, err := s.repo.Review().GetFollowupsByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load follow-up questions: %w", err)
	}
	if len(existing) > 0 || s.generator == nil || len(weakTopics) == 0 {
		return existing, nil
	}

	created := make([]*models.FollowupQuestion, 0, len(weakTopics)*followupsPerTopic)
	for _, topicName := range weakTopics {
		// Weak topics were cached by topicFor during the same review,
		// so a miss here means the cache write failed; skip the topic.
		topic, err := s.repo.Review().GetTopicByName(ctx, topicName)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return nil, fmt.Errorf("failed to look up topic: %w", err)
			}
			s.logger.Warn("weak topic missing from cache", "topic", topicName)
			continue
		}

		generated, gerr := s.generator.FollowupQuestions(ctx, topicName, followupsPerTopic)
		if gerr != nil {
			s.logger.Warn("follow-up generation failed", "topic", topicName, "error", gerr)
			continue
		}
		for _, g := range generated {
			if !models.ValidOption(g.CorrectOption) {
				s.logger.Warn("generated question has invalid correct option", "topic", topicName)
				continue
			}
			f := &models.FollowupQuestion{
				AttemptID:     attempt.ID,
				StudentID:     attempt.StudentID,
				TopicID:       topic.ID,
				Text:          g.Text,
				OptionA:       g.OptionA,
				OptionB:       g.OptionB,
				OptionC:       g.OptionC,
				OptionD:       g.OptionD,
				CorrectOption: g.CorrectOption,
			}
			if err := s.repo.Review().CreateFollowup(ctx, f); err != nil {
				return nil, fmt.Errorf("failed to save follow-up question: %w", err)
			}
			created = append(created, f)
		}
	}
	return created, nil
}

func (s *reviewService) ownedAttempt(ctx context.Context, studentID string, attemptID uint) (*models.TestAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", "review", "not owned by student")
	}
	return attempt, nil
}
