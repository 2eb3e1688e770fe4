package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/dto"
	"reviewhub/internal/service"
)

type CategoryHandler struct {
	catalogService service.CatalogService
}

func NewCategoryHandler(catalogService service.CatalogService) *CategoryHandler {
	return &CategoryHandler{catalogService: catalogService}
}

// RegisterRoutes registers category routes: reads are public, writes
// require an admin.
func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup, auth, admin gin.HandlerFunc) {
	categories := router.Group("/categories")
	{
		categories.GET("", h.List)
		categories.POST("", auth, admin, h.Create)
		categories.DELETE("/:slug", auth, admin, h.Delete)
	}
}

// List retrieves categories with optional ?search= by name
// GET /api/v1/categories
func (h *CategoryHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	response, err := h.catalogService.ListCategories(c.Query("search"), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Create adds a category
// POST /api/v1/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.catalogService.CreateCategory(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSlug), errors.Is(err, service.ErrSlugTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, category)
}

// Delete removes a category by slug
// DELETE /api/v1/categories/:slug
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(c.Param("slug")); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
