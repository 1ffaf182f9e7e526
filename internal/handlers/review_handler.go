package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SDN-2025/exam-session-service/internal/services"
	"github.com/SDN-2025/exam-session-service/internal/utils"
)

type ReviewHandler struct {
	BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService, logger utils.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   NewBaseHandler(logger),
		reviewService: reviewService,
	}
}

// GetReview returns the post-submission breakdown with weak topics and
// generated follow-up questions.
// @Summary Get attempt review
// @Tags review
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.ReviewResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/review [get]
func (h *ReviewHandler) GetReview(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), studentID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// SubmitFollowups grades the student's answers to the generated
// follow-up questions.
// @Summary Submit follow-up answers
// @Tags review
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body services.FollowupAnswersRequest true "Answers keyed by follow-up ID"
// @Success 200 {object} services.FollowupResultResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/review [post]
func (h *ReviewHandler) SubmitFollowups(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.FollowupAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.reviewService.SubmitFollowups(c.Request.Context(), studentID, attemptID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
