package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SDN-2025/exam-session-service/internal/events"
	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/proctoring"
	"github.com/SDN-2025/exam-session-service/internal/vision"
)

type stubClassifier struct {
	result vision.DetectionResult
	err    error
}

func (s *stubClassifier) Classify(_ context.Context, _ []byte) (vision.DetectionResult, error) {
	return s.result, s.err
}

type proctoringEnv struct {
	*sessionEnv
	classifier *stubClassifier
	service    *proctoringService
	attemptID  uint
}

func newProctoringEnv(t *testing.T) *proctoringEnv {
	t.Helper()
	base := newSessionEnv()

	resp, err := base.service.BeginOrResume(context.Background(), testStudentID, 1)
	require.NoError(t, err)

	classifier := &stubClassifier{result: vision.DetectionResult{FacePresent: true}}
	ledger := proctoring.NewLedger(proctoring.NewMemoryWarningStore(), time.Hour)

	env := &proctoringEnv{
		sessionEnv: base,
		classifier: classifier,
		attemptID:  resp.Attempt.ID,
	}
	env.service = NewProctoringService(
		base.repo, base.service, classifier, ledger, base.publisher, discardLogger(),
	).(*proctoringService)
	env.service.now = func() time.Time { return env.now }
	return env
}

func (e *proctoringEnv) analyze(t *testing.T) (*FrameAnalysisResponse, error) {
	t.Helper()
	return e.service.AnalyzeFrame(context.Background(), testStudentID, e.attemptID, []byte("frame"))
}

func TestAnalyzeFrame_CleanFrameWritesEvent(t *testing.T) {
	env := newProctoringEnv(t)

	resp, err := env.analyze(t)
	require.NoError(t, err)
	assert.Nil(t, resp.Suspicious)
	assert.Empty(t, resp.Message)
	assert.Zero(t, resp.WarningCount)
	assert.False(t, resp.ForcedSubmit)

	eventLog, err := env.repo.Proctoring().ListByAttempt(context.Background(), env.attemptID)
	require.NoError(t, err)
	require.Len(t, eventLog, 1)
	assert.Nil(t, eventLog[0].Suspicious)
	assert.True(t, eventLog[0].FacePresent)
}

func TestAnalyzeFrame_DecodeFailureLeavesNoTrace(t *testing.T) {
	env := newProctoringEnv(t)
	env.classifier.err = fmt.Errorf("%w: bad magic bytes", vision.ErrDecodeFailed)

	_, err := env.analyze(t)
	assert.ErrorIs(t, err, ErrFrameDecodeFailed)

	eventLog, lerr := env.repo.Proctoring().ListByAttempt(context.Background(), env.attemptID)
	require.NoError(t, lerr)
	assert.Empty(t, eventLog, "a corrupt frame must not write an event")

	// And it must not have consumed a warning slot: a suspicious frame
	// right after still counts as the first.
	env.classifier.err = nil
	env.classifier.result = vision.DetectionResult{FacePresent: false}
	resp, err := env.analyze(t)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.WarningCount)
}

func TestAnalyzeFrame_EventWriteFailureDoesNotCount(t *testing.T) {
	env := newProctoringEnv(t)
	env.classifier.result = vision.DetectionResult{FacePresent: false}
	env.repo.appendErr = fmt.Errorf("insert failed")

	_, err := env.analyze(t)
	require.Error(t, err)

	// The failed cycle must not have advanced the counter: the next
	// suspicious frame is still the first warning.
	env.repo.appendErr = nil
	env.advance(3 * time.Second)
	resp, err := env.analyze(t)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.WarningCount)
}

func TestAnalyzeFrame_BackendFailure(t *testing.T) {
	env := newProctoringEnv(t)
	env.classifier.err = fmt.Errorf("object detection: connection refused")

	_, err := env.analyze(t)
	assert.ErrorIs(t, err, ErrAnalysisFailed)

	eventLog, lerr := env.repo.Proctoring().ListByAttempt(context.Background(), env.attemptID)
	require.NoError(t, lerr)
	assert.Empty(t, eventLog)
}

func TestAnalyzeFrame_WarningWithMessage(t *testing.T) {
	env := newProctoringEnv(t)
	env.classifier.result = vision.DetectionResult{FacePresent: true, MobileDetected: true}

	resp, err := env.analyze(t)
	require.NoError(t, err)
	require.NotNil(t, resp.Suspicious)
	assert.Equal(t, models.ConditionMobileDevice, *resp.Suspicious)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, 1, resp.WarningCount)

	assert.Len(t, env.eventsOfType(events.EventProctoringViolation), 1)
}

func TestAnalyzeFrame_DebouncedFramesStillLogged(t *testing.T) {
	env := newProctoringEnv(t)
	env.classifier.result = vision.DetectionResult{FacePresent: false}

	resp, err := env.analyze(t)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.WarningCount)

	// Half a second later the warning is debounced but the event is
	// still recorded.
	env.advance(500 * time.Millisecond)
	resp, err = env.analyze(t)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.WarningCount)

	eventLog, lerr := env.repo.Proctoring().ListByAttempt(context.Background(), env.attemptID)
	require.NoError(t, lerr)
	assert.Len(t, eventLog, 2)
	assert.Len(t, env.eventsOfType(events.EventProctoringViolation), 1)
}

func TestAnalyzeFrame_FifthWarningForcesSubmit(t *testing.T) {
	env := newProctoringEnv(t)
	env.classifier.result = vision.DetectionResult{FacePresent: false}

	for i := 1; i <= 4; i++ {
		resp, err := env.analyze(t)
		require.NoError(t, err)
		assert.Equal(t, i, resp.WarningCount)
		assert.False(t, resp.ForcedSubmit)
		env.advance(3 * time.Second)
	}

	resp, err := env.analyze(t)
	require.NoError(t, err)
	assert.True(t, resp.ForcedSubmit)

	attempt, err := env.repo.Attempt().GetByID(context.Background(), env.attemptID)
	require.NoError(t, err)
	assert.True(t, attempt.Submitted)
	assert.True(t, attempt.AutoSubmittedForViolation)
	require.NotNil(t, attempt.SubmitCause)
	assert.Equal(t, models.SubmitViolation, *attempt.SubmitCause)

	assert.Len(t, env.eventsOfType(events.EventProctoringViolation), 5)
	assert.Len(t, env.eventsOfType(events.EventProctoringForcedSubmit), 1)
	assert.Len(t, env.eventsOfType(events.EventAttemptSubmitted), 1)

	// The escalating frame's event carries the forced-submit marker.
	eventLog, lerr := env.repo.Proctoring().ListByAttempt(context.Background(), env.attemptID)
	require.NoError(t, lerr)
	require.Len(t, eventLog, 5)
	assert.True(t, eventLog[4].ForcedSubmit)
	assert.False(t, eventLog[0].ForcedSubmit)
}

func TestAnalyzeFrame_RejectedAfterSubmission(t *testing.T) {
	env := newProctoringEnv(t)

	_, err := env.sessionEnv.service.Submit(context.Background(), testStudentID, env.attemptID)
	require.NoError(t, err)

	_, err = env.analyze(t)
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
}

func TestAnalyzeFrame_ExpiredAttemptTimesOut(t *testing.T) {
	env := newProctoringEnv(t)
	env.advance(31 * time.Minute)

	_, err := env.analyze(t)
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)

	attempt, gerr := env.repo.Attempt().GetByID(context.Background(), env.attemptID)
	require.NoError(t, gerr)
	require.NotNil(t, attempt.SubmitCause)
	assert.Equal(t, models.SubmitTimeout, *attempt.SubmitCause)
}

func TestListEvents_OwnershipEnforced(t *testing.T) {
	env := newProctoringEnv(t)

	_, err := env.service.ListEvents(context.Background(), "intruder", env.attemptID)
	var permErr *PermissionError
	assert.ErrorAs(t, err, &permErr)
}
