package dto

// ListResponse is the envelope for every paginated collection.
type ListResponse struct {
	Data       any `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewListResponse builds the envelope around an already-fetched page.
// A pageSize below 1 is treated as 1.
func NewListResponse(data any, total, page, pageSize int) *ListResponse {
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	return &ListResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
