package handler

import (
	identityapp "github.com/expensetracker/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// TenantHandler exposes operational tenant endpoints. Its routes must sit
// behind middleware.RequireInternal.
type TenantHandler struct {
	BaseHandler
	tenantService *identityapp.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService *identityapp.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// MigrateTenantRequest names the schema to migrate
type MigrateTenantRequest struct {
	Schema string `json:"schema" binding:"required,max=63"`
}

// Migrate godoc
// @Summary      Create and migrate a tenant schema
// @Description  Idempotent. Only callable with the internal operations key.
// @Tags         tenants
// @Param        request body MigrateTenantRequest true "Schema"
// @Success      200 {object} dto.Response{data=identityapp.MigrateTenantResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tenants/migrate [post]
func (h *TenantHandler) Migrate(c *gin.Context) {
	var req MigrateTenantRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.tenantService.MigrateTenant(c.Request.Context(), req.Schema)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
