package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SDN-2025/exam-session-service/internal/services"
	"github.com/SDN-2025/exam-session-service/internal/utils"
)

type ProctoringHandler struct {
	BaseHandler
	proctoringService services.ProctoringService
}

func NewProctoringHandler(proctoringService services.ProctoringService, logger utils.Logger) *ProctoringHandler {
	return &ProctoringHandler{
		BaseHandler:       NewBaseHandler(logger),
		proctoringService: proctoringService,
	}
}

type frameRequest struct {
	// Frame is a base64 image, optionally wrapped as a data URL
	// ("data:image/jpeg;base64,...").
	Frame string `json:"frame" binding:"required"`
}

// AnalyzeFrame runs one monitoring cycle over a camera frame.
// @Summary Analyze a camera frame
// @Tags proctoring
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body frameRequest true "Base64 frame"
// @Success 200 {object} services.FrameAnalysisResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /attempts/{id}/frames [post]
func (h *ProctoringHandler) AnalyzeFrame(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req frameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	frame, err := decodeFrame(req.Frame)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid frame encoding",
			Details: err.Error(),
		})
		return
	}

	result, err := h.proctoringService.AnalyzeFrame(c.Request.Context(), studentID, attemptID, frame)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListEvents returns the attempt's full integrity event log.
// @Summary List proctoring events
// @Tags proctoring
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/events [get]
func (h *ProctoringHandler) ListEvents(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	eventLog, err := h.proctoringService.ListEvents(c.Request.Context(), studentID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Proctoring events", Data: eventLog})
}

func decodeFrame(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(encoded)
}
