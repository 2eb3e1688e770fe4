package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/dto"
	"reviewhub/internal/service"
)

type GenreHandler struct {
	catalogService service.CatalogService
}

func NewGenreHandler(catalogService service.CatalogService) *GenreHandler {
	return &GenreHandler{catalogService: catalogService}
}

// RegisterRoutes registers genre routes: reads are public, writes
// require an admin.
func (h *GenreHandler) RegisterRoutes(router *gin.RouterGroup, auth, admin gin.HandlerFunc) {
	genres := router.Group("/genres")
	{
		genres.GET("", h.List)
		genres.POST("", auth, admin, h.Create)
		genres.DELETE("/:slug", auth, admin, h.Delete)
	}
}

// List retrieves genres with optional ?search= by name
// GET /api/v1/genres
func (h *GenreHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	response, err := h.catalogService.ListGenres(c.Query("search"), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Create adds a genre
// POST /api/v1/genres
func (h *GenreHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	genre, err := h.catalogService.CreateGenre(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSlug), errors.Is(err, service.ErrSlugTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, genre)
}

// Delete removes a genre by slug
// DELETE /api/v1/genres/:slug
func (h *GenreHandler) Delete(c *gin.Context) {
	if err := h.catalogService.DeleteGenre(c.Param("slug")); err != nil {
		if errors.Is(err, service.ErrGenreNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Genre deleted successfully"})
}
