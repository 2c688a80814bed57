package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// TryParseUint coerces an untyped transport value (JSON number, numeric
// string, json.Number) into a positive id. ok is false for anything else.
func TryParseUint(v any) (uint, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case uint:
		return t, t > 0
	case int:
		if t <= 0 {
			return 0, false
		}
		return uint(t), true
	case float64:
		if t <= 0 || t != math.Trunc(t) || t > math.MaxUint32 {
			return 0, false
		}
		return uint(t), true
	case json.Number:
		return TryParseUint(t.String())
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(t), 10, 64)
		if err != nil || n == 0 {
			return 0, false
		}
		return uint(n), true
	default:
		return 0, false
	}
}

// IsBlank reports whether an untyped transport value means "not provided".
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case bool:
		return !t
	default:
		return false
	}
}

// ParsePagination reads page and page size query values.
func ParsePagination(pageStr, sizeStr string, defaultSize int) (int, int) {
	page := 1
	pageSize := defaultSize
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}
