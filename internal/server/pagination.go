package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// pageRequest is a 1-based page window read from ?page= and ?per_page=.
type pageRequest struct {
	Page    int
	PerPage int
}

func readPage(c *gin.Context, defaultPerPage, maxPerPage int) pageRequest {
	p := pageRequest{
		Page:    positiveQuery(c, "page", 1),
		PerPage: positiveQuery(c, "per_page", defaultPerPage),
	}
	if maxPerPage > 0 {
		p.PerPage = min(p.PerPage, maxPerPage)
	}
	return p
}

func positiveQuery(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func (p pageRequest) offset() int {
	return (p.Page - 1) * p.PerPage
}

// window clamps the page to a slice of n items.
func (p pageRequest) window(n int) (int, int) {
	start := min(p.offset(), n)
	return start, min(start+p.PerPage, n)
}

type paginationView struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func (p pageRequest) view(total int64) paginationView {
	perPage := int64(max(p.PerPage, 1))
	return paginationView{
		Page:       p.Page,
		PerPage:    int(perPage),
		Total:      total,
		TotalPages: int(max((total+perPage-1)/perPage, 1)),
	}
}
