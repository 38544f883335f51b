package service

import "github.com/fakturo/billing-api/internal/domain"

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// clampPagination normalizes page and pageSize to sane bounds
func clampPagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// paginated wraps list data with pagination metadata
func paginated(data interface{}, total int64, page, pageSize int) *domain.PaginatedResponse {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
