package handler

import (
	financeapp "github.com/expensetracker/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BankHandler handles bank account and card endpoints
type BankHandler struct {
	BaseHandler
	bankService *financeapp.BankService
}

// NewBankHandler creates a new BankHandler
func NewBankHandler(bankService *financeapp.BankService) *BankHandler {
	return &BankHandler{bankService: bankService}
}

// CardListQuery filters the card list
type CardListQuery struct {
	financeapp.PageRequest
	BankID string `form:"bank_id" binding:"omitempty,uuid"`
}

// CreateBank godoc
// @Summary      Create a bank account
// @Tags         banks
// @Param        request body financeapp.BankRequest true "Bank"
// @Success      201 {object} dto.Response{data=financeapp.BankResponse}
// @Security     BearerAuth
// @Router       /banks [post]
func (h *BankHandler) CreateBank(c *gin.Context) {
	var req financeapp.BankRequest
	if !h.BindJSON(c, &req) {
		return
	}

	bank, err := h.bankService.CreateBank(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, bank)
}

// UpdateBank godoc
// @Summary      Update a bank account
// @Tags         banks
// @Param        id path string true "Bank ID"
// @Success      200 {object} dto.Response{data=financeapp.BankResponse}
// @Security     BearerAuth
// @Router       /banks/{id} [put]
func (h *BankHandler) UpdateBank(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req financeapp.BankRequest
	if !h.BindJSON(c, &req) {
		return
	}

	bank, err := h.bankService.UpdateBank(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bank)
}

// GetBank godoc
// @Summary      Get a bank account
// @Tags         banks
// @Param        id path string true "Bank ID"
// @Success      200 {object} dto.Response{data=financeapp.BankResponse}
// @Security     BearerAuth
// @Router       /banks/{id} [get]
func (h *BankHandler) GetBank(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	bank, err := h.bankService.GetBank(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bank)
}

// DeleteBank godoc
// @Summary      Delete a bank account without cards
// @Tags         banks
// @Param        id path string true "Bank ID"
// @Success      204
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /banks/{id} [delete]
func (h *BankHandler) DeleteBank(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.bankService.DeleteBank(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListBanks godoc
// @Summary      List bank accounts
// @Tags         banks
// @Success      200 {object} dto.Response{data=[]financeapp.BankResponse}
// @Security     BearerAuth
// @Router       /banks [get]
func (h *BankHandler) ListBanks(c *gin.Context) {
	var page financeapp.PageRequest
	if !h.BindQuery(c, &page) {
		return
	}

	banks, err := h.bankService.ListBanks(c.Request.Context(), page)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, banks)
}

// CreateCard godoc
// @Summary      Create a credit card
// @Tags         cards
// @Param        request body financeapp.CardRequest true "Card"
// @Success      201 {object} dto.Response{data=financeapp.CardResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cards [post]
func (h *BankHandler) CreateCard(c *gin.Context) {
	var req financeapp.CardRequest
	if !h.BindJSON(c, &req) {
		return
	}

	card, err := h.bankService.CreateCard(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, card)
}

// UpdateCard godoc
// @Summary      Update a credit card
// @Tags         cards
// @Param        id path string true "Card ID"
// @Success      200 {object} dto.Response{data=financeapp.CardResponse}
// @Security     BearerAuth
// @Router       /cards/{id} [put]
func (h *BankHandler) UpdateCard(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req financeapp.CardRequest
	if !h.BindJSON(c, &req) {
		return
	}

	card, err := h.bankService.UpdateCard(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, card)
}

// GetCard godoc
// @Summary      Get a credit card
// @Tags         cards
// @Param        id path string true "Card ID"
// @Success      200 {object} dto.Response{data=financeapp.CardResponse}
// @Security     BearerAuth
// @Router       /cards/{id} [get]
func (h *BankHandler) GetCard(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	card, err := h.bankService.GetCard(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, card)
}

// DeleteCard godoc
// @Summary      Delete a credit card
// @Tags         cards
// @Param        id path string true "Card ID"
// @Success      204
// @Security     BearerAuth
// @Router       /cards/{id} [delete]
func (h *BankHandler) DeleteCard(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.bankService.DeleteCard(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListCards godoc
// @Summary      List credit cards
// @Tags         cards
// @Param        bank_id query string false "Only cards of this bank"
// @Success      200 {object} dto.Response{data=[]financeapp.CardResponse}
// @Security     BearerAuth
// @Router       /cards [get]
func (h *BankHandler) ListCards(c *gin.Context) {
	var query CardListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	var bankID *uuid.UUID
	if query.BankID != "" {
		id := uuid.MustParse(query.BankID)
		bankID = &id
	}

	cards, err := h.bankService.ListCards(c.Request.Context(), bankID, query.PageRequest)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, cards)
}
