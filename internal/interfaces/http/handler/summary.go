package handler

import (
	financeapp "github.com/expensetracker/backend/internal/application/finance"
	"github.com/expensetracker/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SummaryHandler serves the monthly balance summary
type SummaryHandler struct {
	BaseHandler
	summaryService *financeapp.SummaryService
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler(summaryService *financeapp.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// Monthly godoc
// @Summary      Monthly summary
// @Description  Incomes, expenses, per-card totals and the resulting balance of one month
// @Tags         summary
// @Param        month query string true "YYYY-MM"
// @Success      200 {object} dto.Response{data=financeapp.MonthlySummary}
// @Security     BearerAuth
// @Router       /summary [get]
func (h *SummaryHandler) Monthly(c *gin.Context) {
	var req dto.MonthRequest
	if !h.BindQuery(c, &req) {
		return
	}
	month, ok := parseMonth(&h.BaseHandler, c, req.Month)
	if !ok {
		return
	}

	summary, err := h.summaryService.Monthly(c.Request.Context(), month)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
