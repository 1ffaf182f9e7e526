package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SDN-2025/exam-session-service/internal/services"
	"github.com/SDN-2025/exam-session-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// StartAttempt enters a test: it creates the attempt on first entry or
// resumes the existing one.
// @Summary Start or resume an attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body services.StartAttemptRequest true "Test to enter"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *SessionHandler) StartAttempt(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}

	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	attempt, err := h.sessionService.BeginOrResume(c.Request.Context(), studentID, req.TestID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetQuestion serves one question with the attempt's full navigation
// state.
// @Summary Get a question by index
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param index path int true "Question index"
// @Success 200 {object} services.QuestionViewResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/questions/{index} [get]
func (h *SessionHandler) GetQuestion(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid index",
			Details: err.Error(),
		})
		return
	}

	view, err := h.sessionService.GetQuestionView(c.Request.Context(), studentID, attemptID, index)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Navigate serves the next or previous question relative to the given
// index. Steps past either edge stay on the edge question.
// @Summary Navigate to a neighboring question
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param index path int true "Current question index"
// @Param direction path string true "next or prev"
// @Success 200 {object} services.QuestionViewResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/questions/{index}/{direction} [get]
func (h *SessionHandler) Navigate(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid index",
			Details: err.Error(),
		})
		return
	}
	direction := services.NavDirection(c.Param("direction"))

	view, err := h.sessionService.Navigate(c.Request.Context(), studentID, attemptID, index, direction)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SaveAnswer records a selection and/or the review flag for one
// question.
// @Summary Save an answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body services.SaveAnswerRequest true "Answer"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers [post]
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.sessionService.SaveAnswer(c.Request.Context(), studentID, attemptID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer saved"})
}

type clearAnswerRequest struct {
	QuestionID uint `json:"question_id" binding:"required"`
}

// ClearAnswer removes the selection for one question, keeping the
// record itself.
// @Summary Clear an answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body clearAnswerRequest true "Question"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers/clear [post]
func (h *SessionHandler) ClearAnswer(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req clearAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.sessionService.ClearAnswer(c.Request.Context(), studentID, attemptID, req.QuestionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer cleared"})
}

// SubmitAttempt finalizes the attempt. Submitting an already submitted
// attempt returns the stored result.
// @Summary Submit an attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *SessionHandler) SubmitAttempt(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), studentID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTimeRemaining reports the seconds left, finalizing expired
// attempts as a side effect.
// @Summary Get remaining time
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.TimeRemainingResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/time-remaining [get]
func (h *SessionHandler) GetTimeRemaining(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	remaining, err := h.sessionService.TimeRemaining(c.Request.Context(), studentID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, remaining)
}
