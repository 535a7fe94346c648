package handler

import (
	financeapp "github.com/expensetracker/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// CategoryHandler handles expense category endpoints
type CategoryHandler struct {
	BaseHandler
	categoryService *financeapp.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *financeapp.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryListQuery filters the category list
type CategoryListQuery struct {
	financeapp.PageRequest
	Search string `form:"q" binding:"max=100"`
}

// Create godoc
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CategoryRequest true "Category"
// @Success      201 {object} dto.Response{data=financeapp.CategoryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req financeapp.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, category)
}

// Update godoc
// @Summary      Update a category
// @Tags         categories
// @Param        id path string true "Category ID"
// @Param        request body financeapp.CategoryRequest true "Category"
// @Success      200 {object} dto.Response{data=financeapp.CategoryResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req financeapp.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, category)
}

// GetByID godoc
// @Summary      Get a category
// @Tags         categories
// @Param        id path string true "Category ID"
// @Success      200 {object} dto.Response{data=financeapp.CategoryResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /categories/{id} [get]
func (h *CategoryHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	category, err := h.categoryService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, category)
}

// Delete godoc
// @Summary      Delete a category
// @Tags         categories
// @Param        id path string true "Category ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// List godoc
// @Summary      List categories
// @Description  Pages through the caller's categories, or searches them by name when q is set
// @Tags         categories
// @Param        q         query string false "Name contains"
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]financeapp.CategoryResponse}
// @Security     BearerAuth
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	var query CategoryListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	if query.Search != "" {
		found, err := h.categoryService.Search(c.Request.Context(), query.Search)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, found)
		return
	}

	page, err := h.categoryService.List(c.Request.Context(), query.PageRequest)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}
