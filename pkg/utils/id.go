package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 32 位十六进制，按时间有序（UUIDv7 去掉横线）
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return strings.ReplaceAll(id.String(), "-", "")
}
