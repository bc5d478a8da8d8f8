package api

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// PaginationParams holds parsed pagination parameters
type PaginationParams struct {
	Page      int
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// PaginationResponse is the JSON response structure for paginated endpoints
type PaginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PaginationConfig configures pagination parsing behavior
type PaginationConfig struct {
	DefaultLimit     int
	MaxLimit         int
	DefaultSortBy    string
	DefaultSortOrder string
	AllowedSortBy    map[string]bool
}

// stopwatchPagination sorts by creation time, oldest first, unless asked otherwise.
func stopwatchPagination() PaginationConfig {
	return PaginationConfig{
		DefaultLimit:     50,
		MaxLimit:         500,
		DefaultSortBy:    "created_at",
		DefaultSortOrder: "asc",
		AllowedSortBy:    map[string]bool{"created_at": true, "name": true, "elapsed": true},
	}
}

// ParsePagination extracts and validates pagination parameters from a Gin context
func ParsePagination(c *gin.Context, cfg PaginationConfig) PaginationParams {
	p := PaginationParams{}

	p.Page = parseInt(c.Query("page"), 1)
	if p.Page < 1 {
		p.Page = 1
	}

	p.Limit = parseInt(c.Query("limit"), cfg.DefaultLimit)
	if p.Limit < 1 || p.Limit > cfg.MaxLimit {
		p.Limit = cfg.DefaultLimit
	}

	// Keep (Page-1)*Limit within int
	if maxPage := math.MaxInt / p.Limit; p.Page > maxPage {
		p.Page = maxPage
	}
	p.Offset = (p.Page - 1) * p.Limit

	p.SortBy = c.DefaultQuery("sort_by", cfg.DefaultSortBy)
	p.SortOrder = strings.ToLower(c.DefaultQuery("sort_order", cfg.DefaultSortOrder))

	if cfg.AllowedSortBy != nil && !cfg.AllowedSortBy[p.SortBy] {
		p.SortBy = cfg.DefaultSortBy
	}
	if p.SortOrder != "asc" && p.SortOrder != "desc" {
		p.SortOrder = cfg.DefaultSortOrder
	}

	return p
}

// NewPaginationResponse creates a pagination response from params and total count
func NewPaginationResponse(p PaginationParams, total int) PaginationResponse {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}

	return PaginationResponse{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// page returns the slice of items selected by p. Out of range pages are empty.
func page[T any](items []T, p PaginationParams) []T {
	if p.Offset < 0 || p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

// parseInt parses a non-negative integer, returning defaultVal on anything else
func parseInt(s string, defaultVal int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
