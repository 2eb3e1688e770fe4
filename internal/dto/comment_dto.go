package dto

import (
	"time"

	"reviewhub/internal/models"
)

// CreateCommentRequest for commenting on a review
type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// UpdateCommentRequest is a partial update
type UpdateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// CommentResponse for returning comment information
type CommentResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
}

// FromModelToCommentResponse converts a Comment model to CommentResponse DTO
func FromModelToCommentResponse(comment *models.Comment) *CommentResponse {
	return &CommentResponse{
		ID:      comment.ID,
		Author:  comment.Author.Username,
		Text:    comment.Text,
		PubDate: comment.PubDate,
	}
}

func FromModelToCommentResponses(comments []models.Comment) []CommentResponse {
	responses := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, *FromModelToCommentResponse(&comments[i]))
	}
	return responses
}
