package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/dto"
	"reviewhub/internal/middleware"
	"reviewhub/internal/service"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// RegisterRoutes registers comment routes nested under a review.
func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	comments := router.Group("/titles/:title_id/reviews/:review_id/comments")
	{
		comments.GET("", h.ListByReview)
		comments.GET("/:comment_id", h.Get)
		comments.POST("", auth, h.Create)
		comments.PATCH("/:comment_id", auth, h.Update)
		comments.DELETE("/:comment_id", auth, h.Delete)
	}
}

// Create adds a comment to a review
// POST /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, ok := h.parseParentIDs(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.Create(titleID, reviewID, actor, &req)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListByReview retrieves comments on a review
// GET /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) ListByReview(c *gin.Context) {
	titleID, reviewID, ok := h.parseParentIDs(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)

	response, err := h.commentService.ListByReview(titleID, reviewID, page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get retrieves a single comment
// GET /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, commentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	comment, err := h.commentService.Get(titleID, reviewID, commentID)
	if err != nil {
		h.writeCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Update patches a comment (author, moderator or admin)
// PATCH /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Update(c *gin.Context) {
	titleID, reviewID, commentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.Update(titleID, reviewID, commentID, actor, &req)
	if err != nil {
		h.writeCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Delete removes a comment (author, moderator or admin)
// DELETE /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, commentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.commentService.Delete(titleID, reviewID, commentID, actor); err != nil {
		h.writeCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func (h *CommentHandler) parseParentIDs(c *gin.Context) (titleID, reviewID int64, ok bool) {
	titleID, err := strconv.ParseInt(c.Param("title_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid title ID"})
		return 0, 0, false
	}
	reviewID, err = strconv.ParseInt(c.Param("review_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return 0, 0, false
	}
	return titleID, reviewID, true
}

func (h *CommentHandler) parseIDs(c *gin.Context) (titleID, reviewID, commentID int64, ok bool) {
	titleID, reviewID, ok = h.parseParentIDs(c)
	if !ok {
		return 0, 0, 0, false
	}
	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return 0, 0, 0, false
	}
	return titleID, reviewID, commentID, true
}

func (h *CommentHandler) writeCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound), errors.Is(err, service.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotPermitted):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
