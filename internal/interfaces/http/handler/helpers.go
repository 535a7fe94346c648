package handler

import (
	"net/http"
	"time"

	financeapp "github.com/expensetracker/backend/internal/application/finance"
	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// respondPage writes one page of results with pagination meta
func respondPage[T any](h *BaseHandler, c *gin.Context, p shared.Paginated[T]) {
	h.SuccessWithMeta(c, p.Items, p.Total, p.Page, p.PageSize)
}

// parseMonth reads a YYYY-MM value, answering 400 when it is malformed
func parseMonth(h *BaseHandler, c *gin.Context, value string) (time.Time, bool) {
	month, err := financeapp.ParseMonth(value)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "month must be formatted as YYYY-MM")
		return time.Time{}, false
	}
	return month, true
}
