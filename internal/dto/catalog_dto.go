package dto

import "reviewhub/internal/models"

// CreateCategoryRequest covers both categories and genres; slug shape
// is validated in the service layer.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50"`
}

// CategoryResponse is the nested category shape inside a title
type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// GenreResponse is the nested genre shape inside a title
type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromModelToCategoryResponse(category *models.Category) *CategoryResponse {
	return &CategoryResponse{Name: category.Name, Slug: category.Slug}
}

func FromModelToCategoryResponses(categories []models.Category) []CategoryResponse {
	responses := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		responses = append(responses, *FromModelToCategoryResponse(&categories[i]))
	}
	return responses
}

func FromModelToGenreResponse(genre *models.Genre) *GenreResponse {
	return &GenreResponse{Name: genre.Name, Slug: genre.Slug}
}

func FromModelToGenreResponses(genres []models.Genre) []GenreResponse {
	responses := make([]GenreResponse, 0, len(genres))
	for i := range genres {
		responses = append(responses, *FromModelToGenreResponse(&genres[i]))
	}
	return responses
}

// CreateTitleRequest is the write shape of a title: category and
// genres are referenced by slug.
type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"omitempty,max=50"`
	Genre       []string `json:"genre" binding:"omitempty,dive,required"`
}

// UpdateTitleRequest is a partial update; nil fields are left untouched
type UpdateTitleRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category" binding:"omitempty,max=50"`
	Genre       *[]string `json:"genre" binding:"omitempty,dive,required"`
}

// TitleResponse is the read shape of a title with nested category and
// genre objects plus the computed rating (null when unreviewed).
type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Description string            `json:"description"`
	Rating      *float64          `json:"rating"`
	Category    *CategoryResponse `json:"category"`
	Genre       []GenreResponse   `json:"genre"`
}

// FromModelToTitleResponse converts a Title model; rating is supplied
// by the caller because it is a query-time aggregate.
func FromModelToTitleResponse(title *models.Title, rating *float64) *TitleResponse {
	response := &TitleResponse{
		ID:          title.ID,
		Name:        title.Name,
		Year:        title.Year,
		Description: title.Description,
		Rating:      rating,
		Genre:       FromModelToGenreResponses(title.Genres),
	}
	if title.Category != nil {
		response.Category = FromModelToCategoryResponse(title.Category)
	}
	return response
}
