package handler

import (
	financeapp "github.com/expensetracker/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// SettingsHandler handles the caller's general settings
type SettingsHandler struct {
	BaseHandler
	settingsService *financeapp.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *financeapp.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Get godoc
// @Summary      Get settings
// @Tags         settings
// @Success      200 {object} dto.Response{data=financeapp.SettingsResponse}
// @Security     BearerAuth
// @Router       /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settings)
}

// Update godoc
// @Summary      Update settings
// @Tags         settings
// @Param        request body financeapp.SettingsRequest true "Settings"
// @Success      200 {object} dto.Response{data=financeapp.SettingsResponse}
// @Security     BearerAuth
// @Router       /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req financeapp.SettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settings)
}
