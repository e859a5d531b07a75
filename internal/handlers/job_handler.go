package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"esarbank/internal/services"
)

// JobHandler exposes background jobs to an external scheduler.
type JobHandler struct {
	interestService services.InterestServicer
	auditService    services.AuditServicer
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(interestService services.InterestServicer, auditService services.AuditServicer) *JobHandler {
	return &JobHandler{interestService: interestService, auditService: auditService}
}

// RunMonthlyInterest credits this month's interest to every savings account.
// @Summary     Run monthly interest
// @Description Credits min(2% of balance, 100) to each savings account. Accounts already credited this month are skipped, so reruns are safe.
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header   string                  true "Pipeline API key"
// @Success     200       {object} services.AccrualResult  "Run summary"
// @Failure     401       {object} ErrorResponse           "Invalid API key"
// @Failure     500       {object} ErrorResponse           "Server error"
// @Failure     503       {object} ErrorResponse           "Pipeline not configured"
// @Router      /internal/jobs/monthly-interest [post]
func (h *JobHandler) RunMonthlyInterest(c *gin.Context) {
	result, err := h.interestService.ApplyMonthlyInterest(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("", services.AuditActionAccrueInterest, "interest_run", result.Period, c.ClientIP(),
		map[string]interface{}{
			"scanned":  result.Scanned,
			"credited": result.Credited,
			"skipped":  result.Skipped,
			"failed":   result.Failed,
			"total":    result.TotalInterest.String(),
		})

	c.JSON(http.StatusOK, result)
}
