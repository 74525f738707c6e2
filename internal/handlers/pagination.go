package handlers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// page is one slice of a listing with enough totals for the client to
// render a pager.
type page struct {
	Data        any   `json:"data"`
	TotalRows   int64 `json:"totalRows"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
}

// Page sizes outside (0, maxPageSize] fall back or clamp.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func pageParams(c *gin.Context) (number, size int) {
	number, _ = strconv.Atoi(c.Query("page"))
	if number <= 0 {
		number = 1
	}

	size, _ = strconv.Atoi(c.Query("pageSize"))
	switch {
	case size > maxPageSize:
		size = maxPageSize
	case size <= 0:
		size = defaultPageSize
	}
	return number, size
}

// paged limits a query to the page requested by c.
func paged(c *gin.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		number, size := pageParams(c)
		return db.Offset((number - 1) * size).Limit(size)
	}
}

func newPage(c *gin.Context, data any, totalRows int64) page {
	number, size := pageParams(c)

	pages := 0
	if totalRows > 0 {
		pages = int(math.Ceil(float64(totalRows) / float64(size)))
	}

	return page{
		Data:        data,
		TotalRows:   totalRows,
		TotalPages:  pages,
		CurrentPage: number,
		PageSize:    size,
	}
}
