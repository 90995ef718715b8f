package util

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// MustParseInt 将字符串转换为整数，解析失败时返回默认值
func MustParseInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Pagination reads page/limit query params with sane bounds.
func Pagination(c *gin.Context) (int, int) {
	page := MustParseInt(c.Query("page"), 1)
	limit := MustParseInt(c.Query("limit"), 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return page, limit
}

// PageOffset returns the row offset of page, saturating instead of overflowing.
func PageOffset(page, limit int) int {
	if limit <= 0 || page <= 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// PageWindow returns the [start, end) bounds of page within n items. Pages past the
// end yield an empty window; limit <= 0 selects everything.
func PageWindow(page, limit, n int) (int, int) {
	if limit <= 0 {
		return 0, n
	}
	page = max(page, 1)
	if n == 0 || page-1 > (n-1)/limit {
		return n, n
	}
	start := (page - 1) * limit
	return start, min(start+limit, n)
}

// RequestTime returns the evaluation instant for derived fields: the `at` query param
// (RFC3339) when present, otherwise fallback().
func RequestTime(c *gin.Context, fallback func() time.Time) (time.Time, error) {
	at := c.Query("at")
	if at == "" {
		return fallback(), nil
	}
	return time.Parse(time.RFC3339, at)
}

// ParseDateTime accepts RFC3339 timestamps or plain dates (2006-01-02, UTC midnight).
func ParseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(DateFormat, s)
}
