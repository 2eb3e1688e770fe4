package dto

import (
	"time"

	"reviewhub/internal/models"
)

// CreateReviewRequest for submitting a review to a title
type CreateReviewRequest struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required,min=1,max=10"`
}

// UpdateReviewRequest is a partial update; nil fields are left untouched
type UpdateReviewRequest struct {
	Text  *string `json:"text" binding:"omitempty"`
	Score *int    `json:"score" binding:"omitempty,min=1,max=10"`
}

// ReviewResponse for returning review information
type ReviewResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// FromModelToReviewResponse converts a Review model to ReviewResponse DTO
func FromModelToReviewResponse(review *models.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:      review.ID,
		Author:  review.Author.Username,
		Text:    review.Text,
		Score:   review.Score,
		PubDate: review.PubDate,
	}
}

func FromModelToReviewResponses(reviews []models.Review) []ReviewResponse {
	responses := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, *FromModelToReviewResponse(&reviews[i]))
	}
	return responses
}
