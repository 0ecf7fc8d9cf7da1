package feed

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Page is one slice of an ordered sequence plus the navigation facts a
// renderer needs.
type Page[T any] struct {
	Items       []T   `json:"items"`
	PageIndex   int   `json:"page"`
	PageSize    int   `json:"page_size"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Window clamps pageIndex into [1, totalPages] and returns the offset of its
// first item. An empty sequence still has one (empty) page.
func Window(total int64, pageSize, pageIndex int) (index, totalPages, offset int) {
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	index = pageIndex
	if index < 1 {
		index = 1
	}
	if index > totalPages {
		index = totalPages
	}
	return index, totalPages, (index - 1) * pageSize
}

// NewPage builds a Page around items that were already cut to the window.
func NewPage[T any](items []T, total int64, pageSize, pageIndex int) Page[T] {
	index, totalPages, _ := Window(total, pageSize, pageIndex)
	if items == nil {
		items = []T{}
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return Page[T]{
		Items:       items,
		PageIndex:   index,
		PageSize:    pageSize,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     index < totalPages,
		HasPrevious: index > 1,
	}
}

// Paginate returns page pageIndex of items. The returned Items never alias items.
func Paginate[T any](items []T, pageSize, pageIndex int) Page[T] {
	total := int64(len(items))
	_, _, offset := Window(total, pageSize, pageIndex)
	if pageSize < 1 {
		pageSize = 1
	}
	end := offset + pageSize
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return NewPage(out, total, pageSize, pageIndex)
}

// ParsePageIndex reads a ?page= value. Anything that is not an integer is page 1.
// Integers too large for int saturate so Window still clamps them to the
// nearest valid page.
func ParsePageIndex(raw string) int {
	n, err := strconv.Atoi(raw)
	if err == nil {
		return n
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(raw, "-") {
			return math.MinInt
		}
		return math.MaxInt
	}
	return 1
}
