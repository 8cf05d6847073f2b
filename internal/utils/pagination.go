package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/story-relay-api/internal/constants"
)

// PaginationParams is the page requested through the page and limit query params.
type PaginationParams struct {
	Page  int
	Limit int
}

// PaginationResponse is the pagination block of list responses.
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// GetPaginationParams reads page and limit from the query string. Missing or
// malformed values fall back to the defaults and limit is capped at the maximum.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}

	limit := queryInt(c, "limit", constants.DefaultPageSize)
	switch {
	case limit < constants.MinPageSize:
		limit = constants.DefaultPageSize
	case limit > constants.MaxPageSize:
		limit = constants.MaxPageSize
	}

	return PaginationParams{Page: page, Limit: limit}
}

// Response describes this page of a result set holding total items.
func (p PaginationParams) Response(total int64) PaginationResponse {
	var pages int64
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return PaginationResponse{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
