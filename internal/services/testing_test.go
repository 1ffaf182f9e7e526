package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SDN-2025/exam-session-service/internal/events"
	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"github.com/SDN-2025/exam-session-service/internal/utils"
)

// fakeRepository is an in-memory repositories.Repository used across
// the service tests.
type fakeRepository struct {
	mu sync.Mutex

	attempts    map[uint]*models.TestAttempt
	answers     map[uint]*models.AnswerRecord
	tests       map[uint]*models.Test
	chapters    map[uint]*models.Chapter
	enrollments map[string]map[uint]bool
	eventLog    []*models.ProctoringEvent
	topics      map[uint]*models.Topic
	followups   map[uint]*models.FollowupQuestion

	// appendErr makes proctoring-event writes fail when set.
	appendErr error

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		attempts:    make(map[uint]*models.TestAttempt),
		answers:     make(map[uint]*models.AnswerRecord),
		tests:       make(map[uint]*models.Test),
		chapters:    make(map[uint]*models.Chapter),
		enrollments: make(map[string]map[uint]bool),
		topics:      make(map[uint]*models.Topic),
		followups:   make(map[uint]*models.FollowupQuestion),
	}
}

func (r *fakeRepository) id() uint {
	r.nextID++
	return r.nextID
}

func (r *fakeRepository) Attempt() repositories.AttemptRepository       { return &fakeAttemptRepo{r} }
func (r *fakeRepository) Answer() repositories.AnswerRepository         { return &fakeAnswerRepo{r} }
func (r *fakeRepository) Test() repositories.TestReadRepository         { return &fakeTestRepo{r} }
func (r *fakeRepository) Enrollment() repositories.EnrollmentRepository { return &fakeEnrollmentRepo{r} }
func (r *fakeRepository) Proctoring() repositories.ProctoringRepository { return &fakeProctoringRepo{r} }
func (r *fakeRepository) Review() repositories.ReviewRepository         { return &fakeReviewRepo{r} }

func (r *fakeRepository) Transaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

// ===== ATTEMPTS =====

type fakeAttemptRepo struct{ r *fakeRepository }

func (f *fakeAttemptRepo) GetByID(_ context.Context, id uint) (*models.TestAttempt, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	attempt, ok := f.r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return attempt, nil
}

func (f *fakeAttemptRepo) GetByStudentAndTest(_ context.Context, studentID string, testID uint) (*models.TestAttempt, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, a := range f.r.attempts {
		if a.StudentID == studentID && a.TestID == testID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttemptRepo) GetOrCreate(ctx context.Context, template *models.TestAttempt) (*models.TestAttempt, bool, error) {
	if existing, err := f.GetByStudentAndTest(ctx, template.StudentID, template.TestID); err == nil {
		return existing, false, nil
	}
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	attempt := *template
	attempt.ID = f.r.id()
	f.r.attempts[attempt.ID] = &attempt
	return &attempt, true, nil
}

func (f *fakeAttemptRepo) Update(_ context.Context, attempt *models.TestAttempt) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.attempts[attempt.ID] = attempt
	return nil
}

// ===== ANSWERS =====

type fakeAnswerRepo struct{ r *fakeRepository }

func (f *fakeAnswerRepo) GetByAttempt(_ context.Context, attemptID uint) ([]*models.AnswerRecord, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.AnswerRecord
	for _, a := range f.r.answers {
		if a.AttemptID == attemptID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAnswerRepo) GetByAttemptAndQuestion(_ context.Context, attemptID, questionID uint) (*models.AnswerRecord, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, a := range f.r.answers {
		if a.AttemptID == attemptID && a.QuestionID == questionID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAnswerRepo) Create(_ context.Context, record *models.AnswerRecord) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	record.ID = f.r.id()
	f.r.answers[record.ID] = record
	return nil
}

func (f *fakeAnswerRepo) Update(_ context.Context, record *models.AnswerRecord) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.answers[record.ID] = record
	return nil
}

// ===== TESTS =====

type fakeTestRepo struct{ r *fakeRepository }

func (f *fakeTestRepo) GetByIDWithQuestions(_ context.Context, id uint) (*models.Test, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	test, ok := f.r.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return test, nil
}

func (f *fakeTestRepo) GetQuestion(_ context.Context, id uint) (*models.Question, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, test := range f.r.tests {
		for i := range test.Questions {
			if test.Questions[i].ID == id {
				return &test.Questions[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTestRepo) ClassForTest(_ context.Context, testID uint) (uint, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	test, ok := f.r.tests[testID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	chapter, ok := f.r.chapters[test.ChapterID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return chapter.ClassID, nil
}

// ===== ENROLLMENTS =====

type fakeEnrollmentRepo struct{ r *fakeRepository }

func (f *fakeEnrollmentRepo) IsEnrolled(_ context.Context, studentID string, classID uint) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	return f.r.enrollments[studentID][classID], nil
}

// ===== PROCTORING =====

type fakeProctoringRepo struct{ r *fakeRepository }

func (f *fakeProctoringRepo) Append(_ context.Context, event *models.ProctoringEvent) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if f.r.appendErr != nil {
		return f.r.appendErr
	}
	event.ID = f.r.id()
	event.CreatedAt = time.Now()
	f.r.eventLog = append(f.r.eventLog, event)
	return nil
}

func (f *fakeProctoringRepo) ListByAttempt(_ context.Context, attemptID uint) ([]*models.ProctoringEvent, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.ProctoringEvent
	for _, e := range f.r.eventLog {
		if e.AttemptID == attemptID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeProctoringRepo) CountWarnings(_ context.Context, attemptID uint) (int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var count int64
	for _, e := range f.r.eventLog {
		if e.AttemptID == attemptID && e.Suspicious != nil {
			count++
		}
	}
	return count, nil
}

// ===== REVIEW =====

type fakeReviewRepo struct{ r *fakeRepository }

func (f *fakeReviewRepo) GetTopicByQuestion(_ context.Context, questionID uint) (*models.Topic, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, t := range f.r.topics {
		if t.QuestionID == questionID {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReviewRepo) GetTopicByName(_ context.Context, name string) (*models.Topic, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, t := range f.r.topics {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReviewRepo) CreateTopic(_ context.Context, topic *models.Topic) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	topic.ID = f.r.id()
	f.r.topics[topic.ID] = topic
	return nil
}

func (f *fakeReviewRepo) GetFollowups(_ context.Context, attemptID uint, topicID uint) ([]*models.FollowupQuestion, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.FollowupQuestion
	for _, q := range f.r.followups {
		if q.AttemptID == attemptID && q.TopicID == topicID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) GetFollowupsByAttempt(_ context.Context, attemptID uint) ([]*models.FollowupQuestion, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.FollowupQuestion
	for _, q := range f.r.followups {
		if q.AttemptID == attemptID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) CreateFollowup(_ context.Context, q *models.FollowupQuestion) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	q.ID = f.r.id()
	f.r.followups[q.ID] = q
	return nil
}

func (f *fakeReviewRepo) UpdateFollowup(_ context.Context, q *models.FollowupQuestion) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.followups[q.ID] = q
	return nil
}

// ===== TEST ENVIRONMENT =====

const (
	testStudentID = "student-1"
	testClassID   = uint(10)
)

type sessionEnv struct {
	repo      *fakeRepository
	publisher *events.MockEventPublisher
	service   *sessionService
	test      *models.Test
	now       time.Time
}

// newSessionEnv seeds one enrolled student and one open three-question
// test (correct answers B, C, A) with a 30 minute budget.
func newSessionEnv() *sessionEnv {
	repo := newFakeRepository()

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	repo.chapters[1] = &models.Chapter{ID: 1, Name: "Chapter 1", ClassID: testClassID}
	repo.tests[1] = &models.Test{
		ID:              1,
		Name:            "Midterm",
		ChapterID:       1,
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: 30,
		Questions: []models.Question{
			{ID: 101, TestID: 1, Text: "Q1", CorrectOption: "B", Marks: 1},
			{ID: 102, TestID: 1, Text: "Q2", CorrectOption: "C", Marks: 1},
			{ID: 103, TestID: 1, Text: "Q3", CorrectOption: "A", Marks: 1},
		},
	}
	repo.enrollments[testStudentID] = map[uint]bool{testClassID: true}

	publisher := events.NewMockEventPublisher()
	env := &sessionEnv{
		repo:      repo,
		publisher: publisher,
		test:      repo.tests[1],
		now:       start.Add(5 * time.Minute),
	}

	logger := discardLogger()
	env.service = NewSessionService(repo, publisher, logger, utils.NewValidator()).(*sessionService)
	env.service.now = func() time.Time { return env.now }
	return env
}

func (e *sessionEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *sessionEnv) eventsOfType(eventType events.EventType) []events.SessionEvent {
	var out []events.SessionEvent
	for _, ev := range e.publisher.Events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func strPtr(s string) *string { return &s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
