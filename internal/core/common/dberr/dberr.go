package dberr

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKey recognizes unique violations from both the translated gorm
// error and raw driver messages (postgres and sqlite).
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
