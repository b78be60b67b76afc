package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

const maxPageSize = 200

// countRow GROUP BY 聚合行；别名避开 MySQL 保留字 key
type countRow struct {
	K string
	N int64
}

// page 统一分页边界
func page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageSize {
		limit = 20
	}
	return offset, limit
}

func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

func like(q string) string {
	return "%" + strings.ToLower(q) + "%"
}
