package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// ParseID parses a positive numeric id from a path or body value.
func ParseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 63) // 数据库主键是 bigint
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

const (
	DefaultPageItems = 10
	MaxPageItems     = 50
)

// ParsePaging 解析 page / items 查询参数，非法值回落到默认
func ParsePaging(pageStr, itemsStr string) (page, items int) {
	page = StringToInt(pageStr)
	if page < 1 {
		page = 1
	}
	items = StringToInt(itemsStr)
	if items < 1 {
		items = DefaultPageItems
	}
	if items > MaxPageItems {
		items = MaxPageItems
	}
	return page, items
}

// TotalPages 向上取整
func TotalPages(total int64, items int) int {
	if items <= 0 {
		return 0
	}
	return int((total + int64(items) - 1) / int64(items))
}
