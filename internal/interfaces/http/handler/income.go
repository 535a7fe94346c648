package handler

import (
	financeapp "github.com/expensetracker/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// IncomeHandler handles income endpoints
type IncomeHandler struct {
	BaseHandler
	incomeService *financeapp.IncomeService
}

// NewIncomeHandler creates a new IncomeHandler
func NewIncomeHandler(incomeService *financeapp.IncomeService) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService}
}

// IncomeListQuery filters the income list
type IncomeListQuery struct {
	financeapp.PageRequest
	Month string `form:"month"`
}

// Create godoc
// @Summary      Record an income
// @Tags         incomes
// @Param        request body financeapp.IncomeRequest true "Income"
// @Success      201 {object} dto.Response{data=financeapp.IncomeResponse}
// @Security     BearerAuth
// @Router       /incomes [post]
func (h *IncomeHandler) Create(c *gin.Context) {
	var req financeapp.IncomeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	income, err := h.incomeService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, income)
}

// Update godoc
// @Summary      Update an income
// @Tags         incomes
// @Param        id path string true "Income ID"
// @Success      200 {object} dto.Response{data=financeapp.IncomeResponse}
// @Security     BearerAuth
// @Router       /incomes/{id} [put]
func (h *IncomeHandler) Update(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req financeapp.IncomeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	income, err := h.incomeService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, income)
}

// GetByID godoc
// @Summary      Get an income
// @Tags         incomes
// @Param        id path string true "Income ID"
// @Success      200 {object} dto.Response{data=financeapp.IncomeResponse}
// @Security     BearerAuth
// @Router       /incomes/{id} [get]
func (h *IncomeHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	income, err := h.incomeService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, income)
}

// Delete godoc
// @Summary      Delete an income
// @Tags         incomes
// @Param        id path string true "Income ID"
// @Success      204
// @Security     BearerAuth
// @Router       /incomes/{id} [delete]
func (h *IncomeHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.incomeService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// List godoc
// @Summary      List incomes
// @Description  Pages through the caller's incomes, or returns one month when month is set
// @Tags         incomes
// @Param        month query string false "YYYY-MM"
// @Success      200 {object} dto.Response{data=[]financeapp.IncomeResponse}
// @Security     BearerAuth
// @Router       /incomes [get]
func (h *IncomeHandler) List(c *gin.Context) {
	var query IncomeListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	if query.Month != "" {
		month, ok := parseMonth(&h.BaseHandler, c, query.Month)
		if !ok {
			return
		}
		incomes, err := h.incomeService.ListMonth(c.Request.Context(), month)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, incomes)
		return
	}

	page, err := h.incomeService.List(c.Request.Context(), query.PageRequest)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}
