package handler

import (
	financeapp "github.com/expensetracker/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExpenseHandler handles expense endpoints
type ExpenseHandler struct {
	BaseHandler
	expenseService *financeapp.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *financeapp.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ExpenseListQuery filters the expense list
type ExpenseListQuery struct {
	financeapp.PageRequest
	Month  string `form:"month"`
	CardID string `form:"card_id" binding:"omitempty,uuid"`
}

// Create godoc
// @Summary      Record an expense
// @Description  Card expenses are split into monthly installments
// @Tags         expenses
// @Param        request body financeapp.ExpenseRequest true "Expense"
// @Success      201 {object} dto.Response{data=financeapp.ExpenseResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req financeapp.ExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	expense, err := h.expenseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, expense)
}

// Update godoc
// @Summary      Update an expense and rebuild its installments
// @Tags         expenses
// @Param        id path string true "Expense ID"
// @Success      200 {object} dto.Response{data=financeapp.ExpenseResponse}
// @Security     BearerAuth
// @Router       /expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req financeapp.ExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	expense, err := h.expenseService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expense)
}

// GetByID godoc
// @Summary      Get an expense with its installment schedule
// @Tags         expenses
// @Param        id path string true "Expense ID"
// @Success      200 {object} dto.Response{data=financeapp.ExpenseResponse}
// @Security     BearerAuth
// @Router       /expenses/{id} [get]
func (h *ExpenseHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expense)
}

// Delete godoc
// @Summary      Delete an expense and its installments
// @Tags         expenses
// @Param        id path string true "Expense ID"
// @Success      204
// @Security     BearerAuth
// @Router       /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.expenseService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// List godoc
// @Summary      List expenses
// @Description  With month, returns that month's expenses paid without a card, or with
// @Description  card_id the card's purchases and installments due that month.
// @Tags         expenses
// @Param        month   query string false "YYYY-MM"
// @Param        card_id query string false "Card ID, requires month"
// @Success      200 {object} dto.Response{data=[]financeapp.ExpenseResponse}
// @Security     BearerAuth
// @Router       /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	var query ExpenseListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	if query.Month == "" {
		if query.CardID != "" {
			h.BadRequest(c, "card_id requires month")
			return
		}
		page, err := h.expenseService.List(c.Request.Context(), query.PageRequest)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		respondPage(&h.BaseHandler, c, page)
		return
	}

	month, ok := parseMonth(&h.BaseHandler, c, query.Month)
	if !ok {
		return
	}
	var cardID *uuid.UUID
	if query.CardID != "" {
		id := uuid.MustParse(query.CardID)
		cardID = &id
	}

	expenses, err := h.expenseService.ListMonth(c.Request.Context(), month, cardID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expenses)
}
