package services

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SDN-2025/exam-session-service/internal/events"
	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/proctoring"
	"github.com/SDN-2025/exam-session-service/internal/repositories"
	"github.com/SDN-2025/exam-session-service/internal/utils"
	"github.com/SDN-2025/exam-session-service/internal/vision"
)

// ===== REQUEST / RESPONSE TYPES =====

type StartAttemptRequest struct {
	TestID uint `json:"test_id" validate:"required"`
}

type AttemptResponse struct {
	Attempt          *models.TestAttempt `json:"attempt"`
	RemainingSeconds int                 `json:"remaining_seconds"`
}

// QuestionView is one question as shown to the student. The correct
// option never leaves the service through this shape.
type QuestionView struct {
	Index   int                            `json:"index"`
	ID      uint                           `json:"id"`
	Text    string                         `json:"text"`
	Options map[models.OptionLetter]string `json:"options"`
	Marks   int                            `json:"marks"`
}

type QuestionViewResponse struct {
	Question         QuestionView        `json:"question"`
	TotalQuestions   int                 `json:"total_questions"`
	SelectedOption   *string             `json:"selected_option"`
	MarkedForReview  bool                `json:"marked_for_review"`
	VisitStates      []models.VisitState `json:"visit_states"`
	RemainingSeconds int                 `json:"remaining_seconds"`
}

type SaveAnswerRequest struct {
	QuestionID     uint    `json:"question_id" validate:"required"`
	SelectedOption *string `json:"selected_option" validate:"omitempty,option_letter"`
	MarkForReview  bool    `json:"mark_for_review"`
}

// NavDirection is a single navigation step relative to the current
// question.
type NavDirection string

const (
	NavNext NavDirection = "next"
	NavPrev NavDirection = "prev"
)

type TimeRemainingResponse struct {
	RemainingSeconds int  `json:"remaining_seconds"`
	Submitted        bool `json:"submitted"`
}

type FrameAnalysisResponse struct {
	Suspicious   *models.SuspiciousCondition `json:"suspicious"`
	Message      string                      `json:"message,omitempty"`
	WarningCount int                         `json:"warning_count"`
	ForcedSubmit bool                        `json:"forced_submit"`
	Result       vision.DetectionResult      `json:"result"`
}

// ReviewQuestion is one answered question in the post-submission review,
// with the correct option revealed.
type ReviewQuestion struct {
	Index          int                            `json:"index"`
	QuestionID     uint                           `json:"question_id"`
	Text           string                         `json:"text"`
	Options        map[models.OptionLetter]string `json:"options"`
	CorrectOption  string                         `json:"correct_option"`
	SelectedOption *string                        `json:"selected_option"`
	IsCorrect      bool                           `json:"is_correct"`
	Topic          string                         `json:"topic,omitempty"`
}

type ReviewResponse struct {
	Attempt    *models.TestAttempt        `json:"attempt"`
	Questions  []ReviewQuestion           `json:"questions"`
	WeakTopics []string                   `json:"weak_topics"`
	Followups  []*models.FollowupQuestion `json:"followups"`
}

type FollowupAnswersRequest struct {
	Answers map[uint]string `json:"answers" validate:"required"`
}

type FollowupResultResponse struct {
	Attempted  int     `json:"attempted"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ===== SERVICE INTERFACES =====

// SessionService owns the attempt lifecycle: entry, navigation, answer
// capture, the deadline, and finalization.
type SessionService interface {
	BeginOrResume(ctx context.Context, studentID string, testID uint) (*AttemptResponse, error)
	GetQuestionView(ctx context.Context, studentID string, attemptID uint, index int) (*QuestionViewResponse, error)
	Navigate(ctx context.Context, studentID string, attemptID uint, current int, direction NavDirection) (*QuestionViewResponse, error)
	SaveAnswer(ctx context.Context, studentID string, attemptID uint, req *SaveAnswerRequest) error
	ClearAnswer(ctx context.Context, studentID string, attemptID uint, questionID uint) error
	Submit(ctx context.Context, studentID string, attemptID uint) (*AttemptResponse, error)
	TimeRemaining(ctx context.Context, studentID string, attemptID uint) (*TimeRemainingResponse, error)

	// Finalize submits the attempt with the given cause regardless of
	// ownership checks. It is idempotent; the first recorded cause wins.
	// The proctoring pipeline uses it for forced submission.
	Finalize(ctx context.Context, attemptID uint, cause models.SubmitCause) (*models.TestAttempt, error)
}

// ProctoringService runs the frame-analysis pipeline for live attempts.
type ProctoringService interface {
	AnalyzeFrame(ctx context.Context, studentID string, attemptID uint, frame []byte) (*FrameAnalysisResponse, error)
	ListEvents(ctx context.Context, studentID string, attemptID uint) ([]*models.ProctoringEvent, error)
}

// ReviewService builds the post-submission review and the generated
// remediation flow on top of it.
type ReviewService interface {
	GetReview(ctx context.Context, studentID string, attemptID uint) (*ReviewResponse, error)
	SubmitFollowups(ctx context.Context, studentID string, attemptID uint, req *FollowupAnswersRequest) (*FollowupResultResponse, error)
}

// ReportService exports an attempt's result and integrity log.
type ReportService interface {
	ExportAttemptReport(ctx context.Context, studentID string, attemptID uint) (*excelize.File, error)
}

// GeneratedQuestion is one MCQ produced by a ContentGenerator.
type GeneratedQuestion struct {
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
}

// ContentGenerator produces topic labels and remedial questions. The
// production implementation talks to Gemini; tests use a stub.
type ContentGenerator interface {
	TopicFor(ctx context.Context, questionText string) (string, error)
	FollowupQuestions(ctx context.Context, topic string, count int) ([]GeneratedQuestion, error)
}

// ===== SERVICE MANAGER =====

// ServiceManager aggregates the services the HTTP layer depends on.
type ServiceManager interface {
	Session() SessionService
	Proctoring() ProctoringService
	Review() ReviewService
	Report() ReportService
}

type serviceManager struct {
	session    SessionService
	proctoring ProctoringService
	review     ReviewService
	report     ReportService
}

type ManagerConfig struct {
	Repo       repositories.Repository
	Publisher  events.EventPublisher
	Classifier FrameClassifier
	Ledger     *proctoring.Ledger
	Generator  ContentGenerator
	Logger     *slog.Logger
	Validator  *utils.Validator
}

func NewServiceManager(cfg ManagerConfig) ServiceManager {
	session := NewSessionService(cfg.Repo, cfg.Publisher, cfg.Logger, cfg.Validator)
	return &serviceManager{
		session:    session,
		proctoring: NewProctoringService(cfg.Repo, session, cfg.Classifier, cfg.Ledger, cfg.Publisher, cfg.Logger),
		review:     NewReviewService(cfg.Repo, cfg.Generator, cfg.Logger),
		report:     NewReportService(cfg.Repo, cfg.Logger),
	}
}

func (m *serviceManager) Session() SessionService       { return m.session }
func (m *serviceManager) Proctoring() ProctoringService { return m.proctoring }
func (m *serviceManager) Review() ReviewService         { return m.review }
func (m *serviceManager) Report() ReportService         { return m.report }

// FrameClassifier is the narrow dependency the proctoring service needs
// from the vision package.
type FrameClassifier interface {
	Classify(ctx context.Context, frame []byte) (vision.DetectionResult, error)
}
