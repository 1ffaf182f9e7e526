package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SDN-2025/exam-session-service/internal/services"
	"github.com/SDN-2025/exam-session-service/internal/utils"
)

type HandlerManager struct {
	sessionHandler    *SessionHandler
	proctoringHandler *ProctoringHandler
	reviewHandler     *ReviewHandler
	reportHandler     *ReportHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:    NewSessionHandler(serviceManager.Session(), logger),
		proctoringHandler: NewProctoringHandler(serviceManager.Proctoring(), logger),
		reviewHandler:     NewReviewHandler(serviceManager.Review(), logger),
		reportHandler:     NewReportHandler(serviceManager.Report(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "exam-session-service",
		})
	})

	v1 := router.Group("/api/v1")
	{
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.sessionHandler.StartAttempt)
			attempts.GET("/:id/questions/:index", hm.sessionHandler.GetQuestion)
			attempts.GET("/:id/questions/:index/:direction", hm.sessionHandler.Navigate)
			attempts.POST("/:id/answers", hm.sessionHandler.SaveAnswer)
			attempts.POST("/:id/answers/clear", hm.sessionHandler.ClearAnswer)
			attempts.POST("/:id/submit", hm.sessionHandler.SubmitAttempt)
			attempts.GET("/:id/time-remaining", hm.sessionHandler.GetTimeRemaining)

			// Live integrity monitoring
			attempts.POST("/:id/frames", hm.proctoringHandler.AnalyzeFrame)
			attempts.GET("/:id/events", hm.proctoringHandler.ListEvents)

			// Post-submission review and remediation
			attempts.GET("/:id/review", hm.reviewHandler.GetReview)
			attempts.POST("/:id/review", hm.reviewHandler.SubmitFollowups)
			attempts.GET("/:id/report.xlsx", hm.reportHandler.ExportReport)
		}
	}
}
